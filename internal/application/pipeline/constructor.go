package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	"z-site-gen-api/internal/infrastructure/llm"
	apperrors "z-site-gen-api/pkg/errors"
	"z-site-gen-api/pkg/logger"
	"z-site-gen-api/pkg/metrics"
)

// constructorReply 单章内容补全的输出结构
type constructorReply struct {
	Introduction []string `json:"introduction"`
	Sections     []struct {
		SectionID string                `json:"section_id"`
		Blocks    []entity.ContentBlock `json:"blocks"`
	} `json:"sections"`
}

// Validate 保证补全结果包含可渲染的内容
func (r *constructorReply) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("chapter requires sections")
	}
	hasBlocks := false
	for _, sec := range r.Sections {
		if len(sec.Blocks) > 0 {
			hasBlocks = true
			break
		}
	}
	if !hasBlocks {
		return fmt.Errorf("chapter requires content blocks")
	}
	return nil
}

// Constructor 内容阶段执行器
// 以章节为单元并发生成，已持久化的章节在重跑时跳过
type Constructor struct {
	completer   Completer
	catalog     *llm.Catalog
	blueprints  repository.BlueprintRepository
	schemas     repository.SchemaRepository
	concurrency int
}

// NewConstructor 创建内容执行器
func NewConstructor(completer Completer, catalog *llm.Catalog, blueprints repository.BlueprintRepository, schemas repository.SchemaRepository, concurrency int) *Constructor {
	if concurrency < 1 {
		concurrency = 3
	}
	return &Constructor{
		completer:   completer,
		catalog:     catalog,
		blueprints:  blueprints,
		schemas:     schemas,
		concurrency: concurrency,
	}
}

// Stage 返回阶段标识
func (c *Constructor) Stage() entity.Stage {
	return entity.StageContent
}

// Execute 按蓝图逐章生成内容
// 首个章节错误取消整组，已落库的章节保留以供续跑
func (c *Constructor) Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error {
	blueprint, err := c.blueprints.GetByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	if blueprint == nil {
		return apperrors.ErrBlueprintNotFound
	}
	if !blueprint.Approved {
		return apperrors.ErrBlueprintNotApproved
	}

	existing, err := c.schemas.ExistingChapterIDs(ctx, project.ID)
	if err != nil {
		return err
	}

	total := len(blueprint.Chapters)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for idx := range blueprint.Chapters {
		chapter := &blueprint.Chapters[idx]
		orderIndex := idx

		if _, ok := existing[chapter.ID]; ok {
			n := done.Add(1)
			ev := entity.NewEvent(entity.EventChapterSchemaComplete, project.ID, entity.StageContent)
			ev.ChapterID = chapter.ID
			ev.Message = fmt.Sprintf("章节已存在，跳过: %s", chapter.Title)
			ev.Done = int(n)
			ev.Total = total
			emit(ev)
			metrics.ChaptersGenerated.WithLabelValues("skipped").Inc()
			continue
		}

		g.Go(func() error {
			start := entity.NewEvent(entity.EventChapterSchemaStart, project.ID, entity.StageContent)
			start.ChapterID = chapter.ID
			start.Message = fmt.Sprintf("开始生成章节 %d/%d: %s", orderIndex+1, total, chapter.Title)
			start.Total = total
			emit(start)

			schema, err := c.generateChapter(gctx, project, chapter, orderIndex)
			if err != nil {
				metrics.ChaptersGenerated.WithLabelValues("failed").Inc()
				return fmt.Errorf("chapter %s: %w", chapter.ID, err)
			}

			if err := c.schemas.UpsertChapter(gctx, schema); err != nil {
				metrics.ChaptersGenerated.WithLabelValues("failed").Inc()
				return apperrors.Wrap(err, apperrors.CodeStorageError, "章节内容写入失败")
			}
			metrics.ChaptersGenerated.WithLabelValues("completed").Inc()

			n := done.Add(1)
			ev := entity.NewEvent(entity.EventChapterSchemaComplete, project.ID, entity.StageContent)
			ev.ChapterID = chapter.ID
			ev.Message = fmt.Sprintf("章节完成 %d/%d: %s", n, total, chapter.Title)
			ev.Done = int(n)
			ev.Total = total
			emit(ev)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "内容阶段完成",
		"project_id", project.ID,
		"chapter_count", total,
	)

	// 并发下单章完成事件的进度顺序不保证，成功结束时补一条满进度的终止事件
	final := entity.NewEvent(entity.EventChapterSchemaComplete, project.ID, entity.StageContent)
	final.Message = fmt.Sprintf("全部章节生成完成，共 %d 章", total)
	final.Done = total
	final.Total = total
	emit(final)
	return nil
}

// generateChapter 生成单章内容
func (c *Constructor) generateChapter(ctx context.Context, project *entity.Project, chapter *entity.ChapterPlan, orderIndex int) (*entity.ChapterSchema, error) {
	var reply constructorReply
	req := &llm.CompletionRequest{
		Model:  c.catalog.Resolve(project.Config.Model),
		System: buildConstructorPrompt(project, chapter),
		User:   fmt.Sprintf("Generate the complete content for chapter: %s", chapter.Title),
	}
	if err := c.completer.Complete(ctx, req, &reply); err != nil {
		return nil, err
	}

	schema := &entity.ChapterSchema{
		ProjectID:    project.ID,
		ChapterID:    chapter.ID,
		Introduction: reply.Introduction,
		OrderIndex:   orderIndex,
	}
	for _, sec := range reply.Sections {
		schema.Sections = append(schema.Sections, entity.SectionSchema{
			SectionID: sec.SectionID,
			Blocks:    sec.Blocks,
		})
	}
	schema.DropEmptyBlocks()

	if err := schema.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeProviderError, "章节内容结构不完整")
	}
	return schema, nil
}
