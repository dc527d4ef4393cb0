// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"github.com/google/uuid"

	"z-site-gen-api/internal/domain/entity"
)

// ProjectConfigRequest 生成配置请求
type ProjectConfigRequest struct {
	Depth          string `json:"depth,omitempty" binding:"omitempty,oneof=overview deep_dive comprehensive"`
	Tone           string `json:"tone,omitempty" binding:"omitempty,oneof=introductory professional academic casual"`
	AudienceLevel  string `json:"audience_level,omitempty" binding:"omitempty,max=100"`
	Model          string `json:"model,omitempty" binding:"omitempty,max=255"`
	GenerateImages *bool  `json:"generate_images,omitempty"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Topic  string                `json:"topic" binding:"required,max=500"`
	Config *ProjectConfigRequest `json:"config,omitempty"`
}

// ToProjectEntity 将请求 DTO 转换为领域实体
func (r *CreateProjectRequest) ToProjectEntity() *entity.Project {
	cfg := entity.DefaultProjectConfig()
	if r.Config != nil {
		if r.Config.Depth != "" {
			cfg.Depth = entity.Depth(r.Config.Depth)
		}
		if r.Config.Tone != "" {
			cfg.Tone = entity.Tone(r.Config.Tone)
		}
		if r.Config.AudienceLevel != "" {
			cfg.AudienceLevel = r.Config.AudienceLevel
		}
		if r.Config.Model != "" {
			cfg.Model = r.Config.Model
		}
		if r.Config.GenerateImages != nil {
			cfg.GenerateImages = *r.Config.GenerateImages
		}
	}
	return entity.NewProject(uuid.New().String(), r.Topic, cfg)
}

// ProjectConfigResponse 生成配置响应
type ProjectConfigResponse struct {
	Depth          string `json:"depth"`
	Tone           string `json:"tone"`
	AudienceLevel  string `json:"audience_level"`
	Model          string `json:"model,omitempty"`
	GenerateImages bool   `json:"generate_images"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID        string                `json:"id"`
	Topic     string                `json:"topic"`
	Config    ProjectConfigResponse `json:"config"`
	Status    string                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}

// ToProjectResponse 将领域实体转换为响应 DTO
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:    p.ID,
		Topic: p.Topic,
		Config: ProjectConfigResponse{
			Depth:          string(p.Config.Depth),
			Tone:           string(p.Config.Tone),
			AudienceLevel:  p.Config.AudienceLevel,
			Model:          p.Config.Model,
			GenerateImages: p.Config.GenerateImages,
		},
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProjectListResponse 将项目列表转换为响应 DTO
func ToProjectListResponse(projects []*entity.Project) *ProjectListResponse {
	resp := &ProjectListResponse{
		Projects: make([]*ProjectResponse, 0, len(projects)),
	}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, ToProjectResponse(p))
	}
	return resp
}
