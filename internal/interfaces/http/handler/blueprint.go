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

// BlueprintHandler 蓝图处理器
type BlueprintHandler struct {
	projectRepo   repository.ProjectRepository
	blueprintRepo repository.BlueprintRepository
	txMgr         repository.Transactor
}

// NewBlueprintHandler 创建蓝图处理器
func NewBlueprintHandler(
	projectRepo repository.ProjectRepository,
	blueprintRepo repository.BlueprintRepository,
	txMgr repository.Transactor,
) *BlueprintHandler {
	return &BlueprintHandler{
		projectRepo:   projectRepo,
		blueprintRepo: blueprintRepo,
		txMgr:         txMgr,
	}
}

// GetBlueprint 获取项目蓝图
// @Summary 获取项目蓝图
// @Tags Blueprints
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.BlueprintResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/blueprint [get]
func (h *BlueprintHandler) GetBlueprint(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	blueprint, err := h.blueprintRepo.GetByProjectID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get blueprint", err, "project_id", projectID)
		dto.InternalError(c, "failed to get blueprint")
		return
	}
	if blueprint == nil {
		dto.NotFound(c, "blueprint not found")
		return
	}

	dto.Success(c, dto.ToBlueprintResponse(blueprint))
}

// ApproveBlueprint 批准项目蓝图
// @Summary 批准项目蓝图
// @Description 批准后项目进入 blueprint_approved 状态，允许生成章节内容
// @Tags Blueprints
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/blueprint/approve [post]
func (h *BlueprintHandler) ApproveBlueprint(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get project", err, "project_id", projectID)
		dto.InternalError(c, "failed to approve blueprint")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}
	if !project.CanApproveBlueprint() {
		dto.Conflict(c, "blueprint can only be approved from blueprint_generated status")
		return
	}

	blueprint, err := h.blueprintRepo.GetByProjectID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get blueprint", err, "project_id", projectID)
		dto.InternalError(c, "failed to approve blueprint")
		return
	}
	if blueprint == nil {
		dto.NotFound(c, "blueprint not found")
		return
	}

	// 批准与状态推进在同一事务内完成
	err = h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := h.blueprintRepo.Approve(txCtx, projectID); err != nil {
			return err
		}
		return h.projectRepo.UpdateStatus(txCtx, projectID, entity.ProjectStatusBlueprintApproved)
	})
	if err != nil {
		logger.Error(ctx, "failed to approve blueprint", err, "project_id", projectID)
		dto.InternalError(c, "failed to approve blueprint")
		return
	}

	project.Status = entity.ProjectStatusBlueprintApproved
	dto.Success(c, dto.ToProjectResponse(project))
}
