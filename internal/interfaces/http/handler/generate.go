// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"z-site-gen-api/internal/application/pipeline"
	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/interfaces/http/dto"
	"z-site-gen-api/pkg/logger"
)

// GenerateHandler 生成流水线处理器，以 SSE 推送阶段事件
type GenerateHandler struct {
	controller *pipeline.Controller
}

// NewGenerateHandler 创建生成处理器
func NewGenerateHandler(controller *pipeline.Controller) *GenerateHandler {
	return &GenerateHandler{
		controller: controller,
	}
}

// GenerateBlueprint 生成站点蓝图
// @Summary 生成站点蓝图
// @Description 通过 SSE 流式返回蓝图生成进度
// @Tags Generate
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate/blueprint [get]
func (h *GenerateHandler) GenerateBlueprint(c *gin.Context) {
	h.streamStage(c, entity.StageBlueprint)
}

// GenerateContent 生成章节内容
// @Summary 生成章节内容
// @Description 逐章生成内容结构，通过 SSE 流式返回进度，可断点续跑
// @Tags Generate
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate/content [get]
func (h *GenerateHandler) GenerateContent(c *gin.Context) {
	h.streamStage(c, entity.StageContent)
}

// GenerateIllustrations 生成插图
// @Summary 生成插图
// @Description 为各章节与首页生成插图，单章失败不阻塞
// @Tags Generate
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate/illustrations [get]
func (h *GenerateHandler) GenerateIllustrations(c *gin.Context) {
	h.streamStage(c, entity.StageIllustration)
}

// GenerateWebsite 渲染静态站点
// @Summary 渲染静态站点
// @Description 将已生成的内容渲染为静态站点文件
// @Tags Generate
// @Produce text/event-stream
// @Param pid path string true "项目 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate/website [get]
func (h *GenerateHandler) GenerateWebsite(c *gin.Context) {
	h.streamStage(c, entity.StageRender)
}

// streamStage 启动阶段并把事件流转发为 SSE
func (h *GenerateHandler) streamStage(c *gin.Context, stage entity.Stage) {
	ctx := c.Request.Context()
	projectID := c.Param("pid")

	events, err := h.controller.RunStage(ctx, projectID, stage)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				// 阶段结束，通道关闭
				return false
			}
			data, merr := json.Marshal(dto.ToPipelineEventResponse(ev))
			if merr != nil {
				logger.Warn(ctx, "事件序列化失败", "project_id", projectID, "error", merr)
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			return true

		case <-ctx.Done():
			// 客户端断开，阶段上下文随之取消
			return false
		}
	})
}
