package entity

import (
	"time"
)

// EventType 流水线进度事件类型
type EventType string

const (
	EventBlueprintStart        EventType = "blueprint_start"
	EventBlueprintComplete     EventType = "blueprint_complete"
	EventChapterSchemaStart    EventType = "chapter_schema_start"
	EventChapterSchemaComplete EventType = "chapter_schema_complete"
	EventIllustrationStart     EventType = "illustration_start"
	EventIllustrationComplete  EventType = "illustration_complete"
	EventRenderStart           EventType = "render_start"
	EventRenderComplete        EventType = "render_complete"
	EventExportReady           EventType = "export_ready"
	EventProgress              EventType = "progress"
	EventError                 EventType = "error"
)

// PipelineEvent 阶段执行过程中推送给客户端的进度事件
type PipelineEvent struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id"`
	Stage     Stage     `json:"stage"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Done      int       `json:"done,omitempty"`
	Total     int       `json:"total,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent 构造事件并打上时间戳
func NewEvent(typ EventType, projectID string, stage Stage) PipelineEvent {
	return PipelineEvent{
		Type:      typ,
		ProjectID: projectID,
		Stage:     stage,
		Timestamp: time.Now(),
	}
}
