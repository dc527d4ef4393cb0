package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/infrastructure/llm"
)

// fakeCompleter 以固定 JSON 响应模拟结构化补全
type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req *llm.CompletionRequest, out any) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestArchitectExecute(t *testing.T) {
	completer := &fakeCompleter{response: `{
		"chapters": [
			{
				"title": "Origins",
				"purpose": "Where it began",
				"sections": [
					{"title": "ARPANET", "purpose": "The first network", "expected_content_types": ["prose", "timeline"]},
					{"title": "Protocols", "purpose": "TCP/IP"}
				]
			},
			{
				"title": "The Web Era",
				"purpose": "Going mainstream",
				"sections": [{"title": "Browsers", "purpose": "The front door"}]
			}
		]
	}`}
	blueprints := &fakeBlueprintRepo{}
	project := entity.NewProject("p1", "History of the Internet", entity.DefaultProjectConfig())

	a := NewArchitect(completer, llm.NewCatalog(), blueprints, &fakeSchemaRepo{})
	assert.Equal(t, entity.StageBlueprint, a.Stage())

	sink := &eventSink{}
	require.NoError(t, a.Execute(context.Background(), project, sink.emit))

	bp := blueprints.blueprint
	require.NotNil(t, bp)
	assert.Equal(t, "p1", bp.ProjectID)
	require.Len(t, bp.Chapters, 2)

	// 章节与小节 ID 按序分配
	assert.Equal(t, "chapter_0", bp.Chapters[0].ID)
	assert.Equal(t, "section_0_0", bp.Chapters[0].Sections[0].ID)
	assert.Equal(t, "section_0_1", bp.Chapters[0].Sections[1].ID)
	assert.Equal(t, "chapter_1", bp.Chapters[1].ID)

	// 未给出的内容类型回退到 prose
	assert.Equal(t, []string{"prose", "timeline"}, bp.Chapters[0].Sections[0].ExpectedContentTypes)
	assert.Equal(t, []string{"prose"}, bp.Chapters[0].Sections[1].ExpectedContentTypes)

	assert.False(t, bp.Approved)
	assert.NoError(t, bp.Validate())

	types := sink.types()
	require.Len(t, types, 2)
	assert.Equal(t, entity.EventBlueprintStart, types[0])
	assert.Equal(t, entity.EventBlueprintComplete, types[1])

	payload, ok := sink.all()[1].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, payload["chapter_count"])
}

func TestArchitectResolvesModel(t *testing.T) {
	completer := &fakeCompleter{response: `{"chapters":[{"title":"A","purpose":"p","sections":[{"title":"S"}]}]}`}
	project := entity.NewProject("p1", "topic", entity.ProjectConfig{Model: "Anthropic: Claude Sonnet 4.5"})

	a := NewArchitect(completer, llm.NewCatalog(), &fakeBlueprintRepo{}, &fakeSchemaRepo{})
	sink := &eventSink{}
	require.NoError(t, a.Execute(context.Background(), project, sink.emit))

	require.Len(t, completer.requests, 1)
	assert.Equal(t, "anthropic/claude-sonnet-4.5", completer.requests[0].Model)
	assert.Contains(t, completer.requests[0].User, "topic")
}

func TestArchitectClearsStaleChapters(t *testing.T) {
	// 蓝图重新生成后章节 ID 全部更换，残留的旧章节内容必须清掉
	completer := &fakeCompleter{response: `{"chapters":[{"title":"A","purpose":"p","sections":[{"title":"S"}]}]}`}
	schemas := &fakeSchemaRepo{chapters: []entity.ChapterSchema{
		{ProjectID: "p1", ChapterID: "ch-old"},
	}}
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	a := NewArchitect(completer, llm.NewCatalog(), &fakeBlueprintRepo{}, schemas)
	sink := &eventSink{}
	require.NoError(t, a.Execute(context.Background(), project, sink.emit))

	assert.Empty(t, schemas.chapters)
}
