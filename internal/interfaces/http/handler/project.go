// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	"z-site-gen-api/internal/interfaces/http/dto"
	"z-site-gen-api/pkg/logger"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	siteStore   SiteRemover
	stageGuard  StageGuard
}

// SiteRemover 删除项目时清理站点产物
type SiteRemover interface {
	Delete(projectID string) error
}

// StageGuard 查询项目是否有正在运行的生成阶段
type StageGuard interface {
	Held(ctx context.Context, projectID string) (bool, error)
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, siteStore SiteRemover, stageGuard StageGuard) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		siteStore:   siteStore,
		stageGuard:  stageGuard,
	}
}

// ListProjects 获取项目列表
// @Summary 获取项目列表
// @Description 按创建时间倒序获取项目列表，可按状态过滤
// @Tags Projects
// @Accept json
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Param status query string false "状态过滤"
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()

	pageReq := dto.BindPage(c)

	var filter *repository.ProjectFilter
	if status := c.Query("status"); status != "" {
		filter = &repository.ProjectFilter{Status: entity.ProjectStatus(status)}
	}

	result, err := h.projectRepo.List(ctx, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list projects", err)
		dto.InternalError(c, "failed to list projects")
		return
	}

	resp := dto.ToProjectListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateProject 创建项目
// @Summary 创建项目
// @Description 以主题与生成配置创建网站项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project := req.ToProjectEntity()

	if err := h.projectRepo.Create(ctx, project); err != nil {
		logger.Error(ctx, "failed to create project", err)
		dto.InternalError(c, "failed to create project")
		return
	}

	dto.Created(c, dto.ToProjectResponse(project))
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get project", err, "project_id", projectID)
		dto.InternalError(c, "failed to get project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}

	dto.Success(c, dto.ToProjectResponse(project))
}

// DeleteProject 删除项目
// @Summary 删除项目
// @Description 删除项目及其蓝图、章节内容与站点产物
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get project", err, "project_id", projectID)
		dto.InternalError(c, "failed to delete project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}

	// 阶段运行中不能删，避免执行器写回已删除的项目
	if h.stageGuard != nil {
		held, err := h.stageGuard.Held(ctx, projectID)
		if err != nil {
			logger.Error(ctx, "failed to check running stage", err, "project_id", projectID)
			dto.InternalError(c, "failed to delete project")
			return
		}
		if held {
			dto.Conflict(c, "a generation stage is running, retry after it finishes")
			return
		}
	}

	// 蓝图与章节内容由外键级联删除
	if err := h.projectRepo.Delete(ctx, projectID); err != nil {
		logger.Error(ctx, "failed to delete project", err, "project_id", projectID)
		dto.InternalError(c, "failed to delete project")
		return
	}

	if h.siteStore != nil {
		if err := h.siteStore.Delete(projectID); err != nil {
			logger.Warn(ctx, "failed to remove site files", "project_id", projectID, "error", err)
		}
	}

	dto.NoContent(c)
}
