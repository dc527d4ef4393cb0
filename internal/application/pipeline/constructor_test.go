package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/infrastructure/llm"
	apperrors "z-site-gen-api/pkg/errors"
)

const constructorChapterJSON = `{
	"introduction": ["This chapter covers the basics."],
	"sections": [
		{
			"section_id": "s1",
			"blocks": [
				{"type": "prose", "paragraphs": ["Some real content."]},
				{"type": "prose", "paragraphs": ["   "]}
			]
		}
	]
}`

func approvedBlueprint() *fakeBlueprintRepo {
	return &fakeBlueprintRepo{blueprint: &entity.Blueprint{
		ProjectID: "p1",
		Approved:  true,
		Chapters: []entity.ChapterPlan{
			{ID: "ch-1", Title: "Origins", Sections: []entity.SectionPlan{{ID: "s1", Title: "ARPANET"}}},
			{ID: "ch-2", Title: "The Web Era", Sections: []entity.SectionPlan{{ID: "s2", Title: "Browsers"}}},
		},
	}}
}

func TestConstructorExecute(t *testing.T) {
	completer := &fakeCompleter{response: constructorChapterJSON}
	schemas := &fakeSchemaRepo{}
	project := entity.NewProject("p1", "History of the Internet", entity.DefaultProjectConfig())
	project.Status = entity.ProjectStatusBlueprintApproved

	c := NewConstructor(completer, llm.NewCatalog(), approvedBlueprint(), schemas, 1)
	assert.Equal(t, entity.StageContent, c.Stage())

	sink := &eventSink{}
	require.NoError(t, c.Execute(context.Background(), project, sink.emit))

	assert.Equal(t, 2, completer.callCount())
	require.Len(t, schemas.chapters, 2)

	first, err := schemas.GetChapter(context.Background(), "p1", "ch-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, []string{"This chapter covers the basics."}, first.Introduction)

	// 空白区块在落库前被丢弃
	require.Len(t, first.Sections, 1)
	assert.Len(t, first.Sections[0].Blocks, 1)

	// 每章一对 start/complete 事件，外加一条终止事件
	var starts, completes int
	for _, typ := range sink.types() {
		switch typ {
		case entity.EventChapterSchemaStart:
			starts++
		case entity.EventChapterSchemaComplete:
			completes++
		}
	}
	assert.Equal(t, 2, starts)
	assert.Equal(t, 3, completes)
}

func TestConstructorFinalEventCarriesFullProgress(t *testing.T) {
	blueprints := &fakeBlueprintRepo{blueprint: &entity.Blueprint{
		ProjectID: "p1",
		Approved:  true,
	}}
	for i := 0; i < 8; i++ {
		blueprints.blueprint.Chapters = append(blueprints.blueprint.Chapters, entity.ChapterPlan{
			ID:       fmt.Sprintf("ch-%d", i),
			Title:    fmt.Sprintf("Chapter %d", i),
			Sections: []entity.SectionPlan{{ID: "s1", Title: "Section"}},
		})
	}
	completer := &fakeCompleter{response: constructorChapterJSON}
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	c := NewConstructor(completer, llm.NewCatalog(), blueprints, &fakeSchemaRepo{}, 4)
	sink := &eventSink{}
	require.NoError(t, c.Execute(context.Background(), project, sink.emit))

	// 成功结束时最后一条事件始终是满进度的章节完成事件
	events := sink.all()
	last := events[len(events)-1]
	assert.Equal(t, entity.EventChapterSchemaComplete, last.Type)
	assert.Equal(t, 8, last.Done)
	assert.Equal(t, 8, last.Total)
}

func TestConstructorSkipsExistingChapters(t *testing.T) {
	completer := &fakeCompleter{response: constructorChapterJSON}
	schemas := &fakeSchemaRepo{chapters: []entity.ChapterSchema{
		{ProjectID: "p1", ChapterID: "ch-1", OrderIndex: 0,
			Sections: []entity.SectionSchema{{SectionID: "s1", Blocks: []entity.ContentBlock{{Type: entity.BlockTypeProse, Prose: &entity.ProseBlock{Paragraphs: []string{"kept"}}}}}}},
	}}
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	c := NewConstructor(completer, llm.NewCatalog(), approvedBlueprint(), schemas, 1)
	sink := &eventSink{}
	require.NoError(t, c.Execute(context.Background(), project, sink.emit))

	// 断点续跑只补缺失的章节
	assert.Equal(t, 1, completer.callCount())
	assert.Len(t, schemas.chapters, 2)

	kept, err := schemas.GetChapter(context.Background(), "p1", "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "kept", kept.Sections[0].Blocks[0].Prose.Paragraphs[0])
}

func TestConstructorRequiresApprovedBlueprint(t *testing.T) {
	blueprints := approvedBlueprint()
	blueprints.blueprint.Approved = false
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	c := NewConstructor(&fakeCompleter{}, llm.NewCatalog(), blueprints, &fakeSchemaRepo{}, 1)
	sink := &eventSink{}
	err := c.Execute(context.Background(), project, sink.emit)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBlueprintNotApproved))
}

func TestConstructorMissingBlueprint(t *testing.T) {
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	c := NewConstructor(&fakeCompleter{}, llm.NewCatalog(), &fakeBlueprintRepo{}, &fakeSchemaRepo{}, 1)
	sink := &eventSink{}
	err := c.Execute(context.Background(), project, sink.emit)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBlueprintNotFound))
}

func TestConstructorRejectsEmptyContent(t *testing.T) {
	// 全部区块为空时整章视为生成失败
	completer := &fakeCompleter{response: `{
		"introduction": [],
		"sections": [{"section_id": "s1", "blocks": [{"type": "prose", "paragraphs": ["  "]}]}]
	}`}
	schemas := &fakeSchemaRepo{}
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())

	c := NewConstructor(completer, llm.NewCatalog(), approvedBlueprint(), schemas, 1)
	sink := &eventSink{}
	err := c.Execute(context.Background(), project, sink.emit)
	require.Error(t, err)
	assert.Empty(t, schemas.chapters)
}
