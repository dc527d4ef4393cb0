package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"

	"z-site-gen-api/internal/application/pipeline/templates"
	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	apperrors "z-site-gen-api/pkg/errors"
	"z-site-gen-api/pkg/logger"
)

// navItem 侧边导航条目
type navItem struct {
	Href   string
	Label  string
	Active bool
}

// pageNav 页面导航视图
type pageNav struct {
	Topic string
	Items []navItem
}

// landingChapterView 首页章节卡片视图
type landingChapterView struct {
	Number  int
	Href    string
	Title   string
	Purpose string
}

// landingView 首页视图
type landingView struct {
	Topic     string
	Nav       pageNav
	HeroImage string
	Chapters  []landingChapterView
}

// sectionView 章节小节视图，标题取自蓝图
type sectionView struct {
	ID     string
	Title  string
	Blocks []entity.ContentBlock
}

// chapterView 章节页视图
type chapterView struct {
	Topic        string
	Title        string
	Nav          pageNav
	ImagePath    string
	Introduction []string
	Sections     []sectionView
}

// Renderer 渲染阶段执行器
// 同一输入产生同一站点，不调用任何模型
type Renderer struct {
	store      SiteStore
	blueprints repository.BlueprintRepository
	schemas    repository.SchemaRepository
	tmpl       *template.Template
}

// NewRenderer 创建渲染执行器，模板解析失败说明内嵌资源损坏，直接 panic
func NewRenderer(store SiteStore, blueprints repository.BlueprintRepository, schemas repository.SchemaRepository) *Renderer {
	tmpl := template.Must(template.ParseFS(templates.FS, "*.tmpl"))
	return &Renderer{
		store:      store,
		blueprints: blueprints,
		schemas:    schemas,
		tmpl:       tmpl,
	}
}

// Stage 返回阶段标识
func (r *Renderer) Stage() entity.Stage {
	return entity.StageRender
}

// Execute 把站点结构渲染为静态站点文件
func (r *Renderer) Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error {
	start := entity.NewEvent(entity.EventRenderStart, project.ID, entity.StageRender)
	start.Message = "开始渲染站点"
	emit(start)

	site, err := r.assemble(ctx, project)
	if err != nil {
		return err
	}

	// 清掉旧的 HTML 与样式，保留插图
	if err := r.store.CleanRendered(project.ID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "清理渲染产物失败")
	}

	css, err := templates.FS.ReadFile("styles.css")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "读取内嵌样式表失败")
	}
	if err := r.store.WriteFile(project.ID, "styles.css", css); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "写入样式表失败")
	}

	if err := r.renderLanding(project, site); err != nil {
		return err
	}
	r.emitProgress(emit, project.ID, "已渲染首页", 1, len(site.Chapters)+1)

	for idx := range site.Chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderChapter(project, site, idx); err != nil {
			return err
		}
		r.emitProgress(emit, project.ID,
			fmt.Sprintf("已渲染章节 %d/%d", idx+1, len(site.Chapters)),
			idx+2, len(site.Chapters)+1)
	}

	logger.Info(ctx, "站点渲染完成",
		"project_id", project.ID,
		"chapter_count", len(site.Chapters),
	)

	complete := entity.NewEvent(entity.EventRenderComplete, project.ID, entity.StageRender)
	complete.Message = "站点渲染完成"
	emit(complete)

	ready := entity.NewEvent(entity.EventExportReady, project.ID, entity.StageRender)
	ready.Message = "站点可预览与下载"
	ready.Payload = map[string]any{"output_path": r.store.ProjectDir(project.ID)}
	emit(ready)
	return nil
}

// assemble 汇集蓝图与章节内容，章节按 order_index 排序
func (r *Renderer) assemble(ctx context.Context, project *entity.Project) (*entity.SiteSchema, error) {
	blueprint, err := r.blueprints.GetByProjectID(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if blueprint == nil {
		return nil, apperrors.ErrBlueprintNotFound
	}

	chapters, err := r.schemas.ListChapters(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, apperrors.ErrSchemaNotFound
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].OrderIndex < chapters[j].OrderIndex
	})

	site := &entity.SiteSchema{
		Project:   project,
		Blueprint: blueprint,
		Chapters:  chapters,
	}
	if r.store.HasImage(project.ID, landingImageName) {
		site.LandingImagePath = "images/" + landingImageName
	}
	return site, nil
}

func (r *Renderer) renderLanding(project *entity.Project, site *entity.SiteSchema) error {
	view := landingView{
		Topic:     project.Topic,
		Nav:       r.buildNav(project, site.Blueprint, "home"),
		HeroImage: site.LandingImagePath,
	}
	for idx := range site.Blueprint.Chapters {
		chapter := &site.Blueprint.Chapters[idx]
		view.Chapters = append(view.Chapters, landingChapterView{
			Number:  idx + 1,
			Href:    fmt.Sprintf("chapter_%d.html", idx+1),
			Title:   chapter.Title,
			Purpose: chapter.Purpose,
		})
	}
	return r.renderPage(project.ID, "index.html", "index", view)
}

func (r *Renderer) renderChapter(project *entity.Project, site *entity.SiteSchema, idx int) error {
	schema := site.Chapters[idx]
	plan, ok := site.Blueprint.ChapterByID(schema.ChapterID)
	if !ok {
		return apperrors.New(apperrors.CodeStorageError,
			fmt.Sprintf("章节 %s 不在蓝图中", schema.ChapterID))
	}

	view := chapterView{
		Topic:        project.Topic,
		Title:        plan.Title,
		Nav:          r.buildNav(project, site.Blueprint, plan.ID),
		ImagePath:    schema.ImagePath,
		Introduction: schema.Introduction,
	}
	for _, section := range schema.Sections {
		title := "Section"
		for i := range plan.Sections {
			if plan.Sections[i].ID == section.SectionID {
				title = plan.Sections[i].Title
				break
			}
		}
		view.Sections = append(view.Sections, sectionView{
			ID:     section.SectionID,
			Title:  title,
			Blocks: section.Blocks,
		})
	}
	return r.renderPage(project.ID, fmt.Sprintf("chapter_%d.html", idx+1), "chapter", view)
}

func (r *Renderer) renderPage(projectID, filename, tmplName string, view any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, tmplName, view); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError,
			fmt.Sprintf("渲染 %s 失败", filename))
	}
	if err := r.store.WriteFile(projectID, filename, buf.Bytes()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError,
			fmt.Sprintf("写入 %s 失败", filename))
	}
	return nil
}

func (r *Renderer) buildNav(project *entity.Project, blueprint *entity.Blueprint, currentID string) pageNav {
	nav := pageNav{
		Topic: project.Topic,
		Items: []navItem{{Href: "index.html", Label: "🏠 Home", Active: currentID == "home"}},
	}
	for idx := range blueprint.Chapters {
		chapter := &blueprint.Chapters[idx]
		nav.Items = append(nav.Items, navItem{
			Href:   fmt.Sprintf("chapter_%d.html", idx+1),
			Label:  fmt.Sprintf("%d. %s", idx+1, chapter.Title),
			Active: chapter.ID == currentID,
		})
	}
	return nav
}

func (r *Renderer) emitProgress(emit EmitFunc, projectID, message string, done, total int) {
	ev := entity.NewEvent(entity.EventProgress, projectID, entity.StageRender)
	ev.Message = message
	ev.Done = done
	ev.Total = total
	emit(ev)
}
