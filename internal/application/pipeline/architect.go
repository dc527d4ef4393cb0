package pipeline

import (
	"context"
	"fmt"
	"strings"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	"z-site-gen-api/internal/infrastructure/llm"
	"z-site-gen-api/pkg/logger"
)

// architectReply 蓝图补全的输出结构
type architectReply struct {
	Chapters []struct {
		Title    string `json:"title"`
		Purpose  string `json:"purpose"`
		Sections []struct {
			Title                string   `json:"title"`
			Purpose              string   `json:"purpose"`
			ExpectedContentTypes []string `json:"expected_content_types"`
		} `json:"sections"`
	} `json:"chapters"`
}

// Validate 保证补全结果可以转换为合法蓝图
func (r *architectReply) Validate() error {
	if len(r.Chapters) == 0 {
		return fmt.Errorf("blueprint requires chapters")
	}
	for i, ch := range r.Chapters {
		if strings.TrimSpace(ch.Title) == "" {
			return fmt.Errorf("chapter %d: title is required", i)
		}
		if len(ch.Sections) == 0 {
			return fmt.Errorf("chapter %d: sections are required", i)
		}
	}
	return nil
}

// Architect 蓝图阶段执行器
// 仅产出结构：章节与小节规划，不产出正文内容
type Architect struct {
	completer  Completer
	catalog    *llm.Catalog
	blueprints repository.BlueprintRepository
	schemas    repository.SchemaRepository
}

// NewArchitect 创建蓝图执行器
func NewArchitect(completer Completer, catalog *llm.Catalog, blueprints repository.BlueprintRepository, schemas repository.SchemaRepository) *Architect {
	return &Architect{
		completer:  completer,
		catalog:    catalog,
		blueprints: blueprints,
		schemas:    schemas,
	}
}

// Stage 返回阶段标识
func (a *Architect) Stage() entity.Stage {
	return entity.StageBlueprint
}

// Execute 生成并保存蓝图
func (a *Architect) Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error {
	ev := entity.NewEvent(entity.EventBlueprintStart, project.ID, entity.StageBlueprint)
	ev.Message = fmt.Sprintf("开始生成蓝图: %s", project.Topic)
	emit(ev)

	var reply architectReply
	req := &llm.CompletionRequest{
		Model:  a.catalog.Resolve(project.Config.Model),
		System: buildArchitectPrompt(project),
		User:   fmt.Sprintf("Generate the structural blueprint for: %s", project.Topic),
	}
	if err := a.completer.Complete(ctx, req, &reply); err != nil {
		return err
	}

	blueprint := &entity.Blueprint{
		ProjectID: project.ID,
	}
	for i, ch := range reply.Chapters {
		plan := entity.ChapterPlan{
			ID:      fmt.Sprintf("chapter_%d", i),
			Title:   ch.Title,
			Purpose: ch.Purpose,
		}
		for j, sec := range ch.Sections {
			types := sec.ExpectedContentTypes
			if len(types) == 0 {
				types = []string{"prose"}
			}
			plan.Sections = append(plan.Sections, entity.SectionPlan{
				ID:                   fmt.Sprintf("section_%d_%d", i, j),
				Title:                sec.Title,
				Purpose:              sec.Purpose,
				ExpectedContentTypes: types,
			})
		}
		blueprint.Chapters = append(blueprint.Chapters, plan)
	}

	if err := a.blueprints.Save(ctx, blueprint); err != nil {
		return err
	}

	// 重新生成蓝图后章节 ID 全部更换，旧的章节内容不再匹配，必须清掉
	if err := a.schemas.DeleteByProjectID(ctx, project.ID); err != nil {
		return err
	}

	logger.Info(ctx, "蓝图生成完成",
		"project_id", project.ID,
		"chapter_count", len(blueprint.Chapters),
	)

	done := entity.NewEvent(entity.EventBlueprintComplete, project.ID, entity.StageBlueprint)
	done.Message = fmt.Sprintf("蓝图生成完成，共 %d 章", len(blueprint.Chapters))
	done.Payload = map[string]any{"chapter_count": len(blueprint.Chapters)}
	emit(done)
	return nil
}
