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

// scriptedCompleter 按目标结构返回对应的固定回复
type scriptedCompleter struct {
	mu        sync.Mutex
	blueprint string
	chapter   string
}

func (s *scriptedCompleter) Complete(ctx context.Context, req *llm.CompletionRequest, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch out.(type) {
	case *architectReply:
		return json.Unmarshal([]byte(s.blueprint), out)
	default:
		return json.Unmarshal([]byte(s.chapter), out)
	}
}

func requireNoErrorEvents(t *testing.T, events []entity.PipelineEvent) {
	t.Helper()
	for _, ev := range events {
		require.NotEqual(t, entity.EventError, ev.Type, "unexpected error event: %s", ev.Message)
	}
}

func snapshotFiles(store *memStore) map[string][]byte {
	out := make(map[string][]byte, len(store.files))
	for name, data := range store.files {
		out[name] = append([]byte(nil), data...)
	}
	return out
}

// 从创建到导出跑完整条流水线，验证状态推进与渲染产物的可重复性
func TestPipelineEndToEnd(t *testing.T) {
	completer := &scriptedCompleter{
		blueprint: `{
			"chapters": [
				{
					"title": "Origins",
					"purpose": "Where it began",
					"sections": [{"title": "ARPANET", "purpose": "The first network"}]
				},
				{
					"title": "The Web Era",
					"purpose": "Going mainstream",
					"sections": [{"title": "Browsers", "purpose": "The front door"}]
				}
			]
		}`,
		chapter: `{
			"introduction": ["An overview of the era."],
			"sections": [
				{"section_id": "section_0_0", "blocks": [{"type": "prose", "paragraphs": ["Packet switching changed everything."]}]},
				{"section_id": "section_1_0", "blocks": [{"type": "prose", "paragraphs": ["The browser brought it home."]}]}
			]
		}`,
	}
	catalog := llm.NewCatalog()
	blueprints := &fakeBlueprintRepo{}
	schemas := &fakeSchemaRepo{}
	store := newMemStore()

	project := entity.NewProject("p1", "History of the Internet", entity.DefaultProjectConfig())
	repo := &fakeProjectRepo{project: project}

	ctrl := NewController(
		repo,
		&fakeLease{},
		NewArchitect(completer, catalog, blueprints, schemas),
		NewConstructor(completer, catalog, blueprints, schemas, 2),
		NewRenderer(store, blueprints, schemas),
	)

	ctx := context.Background()

	// 蓝图阶段
	events, err := ctrl.RunStage(ctx, "p1", entity.StageBlueprint)
	require.NoError(t, err)
	requireNoErrorEvents(t, drain(t, events))
	assert.Equal(t, entity.ProjectStatusBlueprintGenerated, project.Status)
	require.NotNil(t, blueprints.blueprint)
	require.Len(t, blueprints.blueprint.Chapters, 2)

	// 审批蓝图
	require.NoError(t, blueprints.Approve(ctx, "p1"))
	require.NoError(t, repo.UpdateStatus(ctx, "p1", entity.ProjectStatusBlueprintApproved))

	// 内容阶段
	events, err = ctrl.RunStage(ctx, "p1", entity.StageContent)
	require.NoError(t, err)
	requireNoErrorEvents(t, drain(t, events))
	assert.Equal(t, entity.ProjectStatusSchemaGenerated, project.Status)
	require.Len(t, schemas.chapters, 2)

	// 渲染阶段
	events, err = ctrl.RunStage(ctx, "p1", entity.StageRender)
	require.NoError(t, err)
	requireNoErrorEvents(t, drain(t, events))
	assert.Equal(t, entity.ProjectStatusCompleted, project.Status)

	first := snapshotFiles(store)
	require.Contains(t, first, "p1/index.html")
	require.Contains(t, first, "p1/chapter_1.html")
	require.Contains(t, first, "p1/chapter_2.html")
	require.Contains(t, first, "p1/styles.css")

	// 完成后允许重新渲染，产物逐字节一致
	events, err = ctrl.RunStage(ctx, "p1", entity.StageRender)
	require.NoError(t, err)
	requireNoErrorEvents(t, drain(t, events))
	assert.Equal(t, first, snapshotFiles(store))
}
