// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"z-site-gen-api/internal/infrastructure/llm"
	"z-site-gen-api/internal/interfaces/http/dto"
)

// ModelHandler 模型目录处理器
type ModelHandler struct {
	catalog *llm.Catalog
}

// NewModelHandler 创建模型目录处理器
func NewModelHandler(catalog *llm.Catalog) *ModelHandler {
	return &ModelHandler{
		catalog: catalog,
	}
}

// ListModels 获取可用模型列表
// @Summary 获取可用模型列表
// @Description 返回允许使用的模型及其定价与上下文窗口
// @Tags Models
// @Produce json
// @Success 200 {object} dto.Response[dto.ModelListResponse]
// @Router /v1/models [get]
func (h *ModelHandler) ListModels(c *gin.Context) {
	dto.Success(c, dto.ToModelListResponse(h.catalog.List()))
}
