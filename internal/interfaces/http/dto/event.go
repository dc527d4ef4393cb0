// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"z-site-gen-api/internal/domain/entity"
)

// PipelineEventResponse 流水线事件响应，经 SSE 推送
type PipelineEventResponse struct {
	Type      string         `json:"type"`
	ProjectID string         `json:"project_id"`
	Stage     string         `json:"stage"`
	ChapterID string         `json:"chapter_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Done      int            `json:"done,omitempty"`
	Total     int            `json:"total,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToPipelineEventResponse 将流水线事件转换为响应 DTO
// 事件负载约定为对象，其它形态不透出
func ToPipelineEventResponse(ev entity.PipelineEvent) *PipelineEventResponse {
	payload, _ := ev.Payload.(map[string]any)
	return &PipelineEventResponse{
		Type:      string(ev.Type),
		ProjectID: ev.ProjectID,
		Stage:     string(ev.Stage),
		ChapterID: ev.ChapterID,
		Message:   ev.Message,
		Done:      ev.Done,
		Total:     ev.Total,
		Payload:   payload,
		Timestamp: ev.Timestamp,
	}
}
