// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectStatus 项目生命周期状态
type ProjectStatus string

const (
	ProjectStatusCreated            ProjectStatus = "created"
	ProjectStatusBlueprintGenerated ProjectStatus = "blueprint_generated"
	ProjectStatusBlueprintApproved  ProjectStatus = "blueprint_approved"
	ProjectStatusSchemaGenerated    ProjectStatus = "schema_generated"
	ProjectStatusCompleted          ProjectStatus = "completed"
)

// Stage 流水线阶段
type Stage string

const (
	StageBlueprint    Stage = "blueprint"
	StageContent      Stage = "content"
	StageIllustration Stage = "illustration"
	StageRender       Stage = "render"
)

// Depth 内容深度
type Depth string

const (
	DepthOverview      Depth = "overview"
	DepthDeepDive      Depth = "deep_dive"
	DepthComprehensive Depth = "comprehensive"
)

// Tone 内容语气
type Tone string

const (
	ToneIntroductory Tone = "introductory"
	ToneProfessional Tone = "professional"
	ToneAcademic     Tone = "academic"
	ToneCasual       Tone = "casual"
)

// ProjectConfig 项目生成配置
type ProjectConfig struct {
	Depth          Depth  `json:"depth"`
	Tone           Tone   `json:"tone"`
	AudienceLevel  string `json:"audience_level"`
	Model          string `json:"model"`
	GenerateImages bool   `json:"generate_images"`
}

// DefaultProjectConfig 返回默认生成配置
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Depth:          DepthOverview,
		Tone:           ToneProfessional,
		AudienceLevel:  "general",
		GenerateImages: true,
	}
}

// Project 站点生成项目实体
type Project struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Config    ProjectConfig `json:"config"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewProject 创建新项目
func NewProject(id, topic string, cfg ProjectConfig) *Project {
	now := time.Now()
	if cfg.Depth == "" {
		cfg.Depth = DepthOverview
	}
	if cfg.Tone == "" {
		cfg.Tone = ToneProfessional
	}
	if cfg.AudienceLevel == "" {
		cfg.AudienceLevel = "general"
	}
	return &Project{
		ID:        id,
		Topic:     topic,
		Config:    cfg,
		Status:    ProjectStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// stageEntryStatuses 各阶段允许启动的前置状态集合
var stageEntryStatuses = map[Stage][]ProjectStatus{
	// 蓝图在批准前可重新生成
	StageBlueprint:    {ProjectStatusCreated, ProjectStatusBlueprintGenerated},
	StageContent:      {ProjectStatusBlueprintApproved},
	StageIllustration: {ProjectStatusSchemaGenerated, ProjectStatusCompleted},
	StageRender:       {ProjectStatusSchemaGenerated, ProjectStatusCompleted},
}

// CanStartStage 检查当前状态能否启动指定阶段
func (p *Project) CanStartStage(stage Stage) bool {
	for _, s := range stageEntryStatuses[stage] {
		if p.Status == s {
			return true
		}
	}
	return false
}

// CanApproveBlueprint 检查当前状态能否批准蓝图
func (p *Project) CanApproveBlueprint() bool {
	return p.Status == ProjectStatusBlueprintGenerated
}

// StageSuccessStatus 返回阶段成功后应写入的状态
// 插图阶段不改变生命周期状态，返回空串
func StageSuccessStatus(stage Stage) ProjectStatus {
	switch stage {
	case StageBlueprint:
		return ProjectStatusBlueprintGenerated
	case StageContent:
		return ProjectStatusSchemaGenerated
	case StageRender:
		return ProjectStatusCompleted
	default:
		return ""
	}
}

// ValidStage 检查是否为合法阶段名
func ValidStage(s string) bool {
	switch Stage(s) {
	case StageBlueprint, StageContent, StageIllustration, StageRender:
		return true
	}
	return false
}
