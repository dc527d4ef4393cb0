// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"z-site-gen-api/internal/infrastructure/llm"
)

// ModelResponse 模型信息响应
type ModelResponse struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	InputPerM     float64 `json:"input_per_m"`
	OutputPerM    float64 `json:"output_per_m"`
	ContextWindow int     `json:"context_window"`
}

// ModelListResponse 模型列表响应
type ModelListResponse struct {
	Models []*ModelResponse `json:"models"`
}

// ToModelListResponse 将模型目录转换为响应 DTO
func ToModelListResponse(models []llm.ModelInfo) *ModelListResponse {
	resp := &ModelListResponse{
		Models: make([]*ModelResponse, 0, len(models)),
	}
	for i := range models {
		m := &models[i]
		resp.Models = append(resp.Models, &ModelResponse{
			ID:            m.ID,
			DisplayName:   m.DisplayName,
			InputPerM:     m.InputPerM,
			OutputPerM:    m.OutputPerM,
			ContextWindow: m.ContextWindow,
		})
	}
	return resp
}
