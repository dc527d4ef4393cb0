package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	"z-site-gen-api/internal/infrastructure/llm"
	apperrors "z-site-gen-api/pkg/errors"
	"z-site-gen-api/pkg/logger"
)

// landingImageName 首页主图的固定文件名
const landingImageName = "hero.png"

// imagePromptReply 插图提示词补全的输出结构
type imagePromptReply struct {
	Prompt string `json:"prompt"`
}

// Validate 保证提示词非空
func (r *imagePromptReply) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("image prompt is empty")
	}
	return nil
}

// Illustrator 插图阶段执行器
// 单章失败只记录并跳过，缺图不阻塞流水线，也不改变项目状态
type Illustrator struct {
	completer   Completer
	catalog     *llm.Catalog
	images      ImageGenerator
	store       SiteStore
	blueprints  repository.BlueprintRepository
	schemas     repository.SchemaRepository
	concurrency int
}

// NewIllustrator 创建插图执行器
func NewIllustrator(completer Completer, catalog *llm.Catalog, images ImageGenerator, store SiteStore, blueprints repository.BlueprintRepository, schemas repository.SchemaRepository, concurrency int) *Illustrator {
	if concurrency < 1 {
		concurrency = 3
	}
	return &Illustrator{
		completer:   completer,
		catalog:     catalog,
		images:      images,
		store:       store,
		blueprints:  blueprints,
		schemas:     schemas,
		concurrency: concurrency,
	}
}

// Stage 返回阶段标识
func (il *Illustrator) Stage() entity.Stage {
	return entity.StageIllustration
}

// Execute 为各章节与首页生成插图
func (il *Illustrator) Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error {
	start := entity.NewEvent(entity.EventIllustrationStart, project.ID, entity.StageIllustration)
	start.Message = "开始生成插图"
	emit(start)

	if !project.Config.GenerateImages || !il.images.Enabled() {
		ev := entity.NewEvent(entity.EventIllustrationComplete, project.ID, entity.StageIllustration)
		ev.Message = "插图生成未启用，跳过"
		emit(ev)
		return nil
	}

	blueprint, err := il.blueprints.GetByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	if blueprint == nil {
		return apperrors.ErrBlueprintNotFound
	}

	chapters, err := il.schemas.ListChapters(ctx, project.ID)
	if err != nil {
		return err
	}

	total := len(chapters) + 1 // 各章节加首页主图
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(il.concurrency)

	for i := range chapters {
		chapter := chapters[i]
		g.Go(func() error {
			defer func() {
				n := done.Add(1)
				ev := entity.NewEvent(entity.EventProgress, project.ID, entity.StageIllustration)
				ev.ChapterID = chapter.ChapterID
				ev.Done = int(n)
				ev.Total = total
				ev.Message = fmt.Sprintf("插图进度 %d/%d", n, total)
				emit(ev)
			}()

			// 已有插图的章节跳过
			if chapter.ImagePath != "" {
				return nil
			}

			plan, ok := blueprint.ChapterByID(chapter.ChapterID)
			if !ok {
				return nil
			}

			rel, err := il.generateImage(gctx, project,
				buildChapterImageUser(project, plan),
				fmt.Sprintf("chapter_%d", chapter.OrderIndex+1))
			if err != nil {
				logger.Warn(gctx, "章节插图生成失败，跳过",
					"project_id", project.ID,
					"chapter_id", chapter.ChapterID,
					"error", err,
				)
				return nil
			}

			if err := il.schemas.SetImagePath(gctx, project.ID, chapter.ChapterID, rel); err != nil {
				logger.Warn(gctx, "章节插图路径写入失败",
					"project_id", project.ID,
					"chapter_id", chapter.ChapterID,
					"error", err,
				)
			}
			return nil
		})
	}

	// 首页主图
	g.Go(func() error {
		defer func() {
			n := done.Add(1)
			ev := entity.NewEvent(entity.EventProgress, project.ID, entity.StageIllustration)
			ev.Done = int(n)
			ev.Total = total
			ev.Message = fmt.Sprintf("插图进度 %d/%d", n, total)
			emit(ev)
		}()

		if il.store.HasImage(project.ID, landingImageName) {
			return nil
		}
		if _, err := il.generateImage(gctx, project, buildLandingImageUser(project), "hero"); err != nil {
			logger.Warn(gctx, "首页主图生成失败，跳过",
				"project_id", project.ID,
				"error", err,
			)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	ev := entity.NewEvent(entity.EventIllustrationComplete, project.ID, entity.StageIllustration)
	ev.Message = "插图生成完成"
	emit(ev)
	return nil
}

// generateImage 生成单张插图并写入站点目录，返回站点内相对路径
func (il *Illustrator) generateImage(ctx context.Context, project *entity.Project, userPrompt, baseName string) (string, error) {
	var reply imagePromptReply
	req := &llm.CompletionRequest{
		Model:  il.catalog.Resolve(project.Config.Model),
		System: buildImagePromptSystem,
		User:   userPrompt,
	}
	if err := il.completer.Complete(ctx, req, &reply); err != nil {
		return "", err
	}

	data, ext, err := il.images.Generate(ctx, reply.Prompt)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s.%s", baseName, ext)
	if baseName == "hero" {
		name = landingImageName
	}
	return il.store.WriteImage(project.ID, name, data)
}
