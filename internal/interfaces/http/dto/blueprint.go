// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"z-site-gen-api/internal/domain/entity"
)

// SectionPlanResponse 小节规划响应
type SectionPlanResponse struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Purpose              string   `json:"purpose"`
	ExpectedContentTypes []string `json:"expected_content_types"`
}

// ChapterPlanResponse 章节规划响应
type ChapterPlanResponse struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Purpose  string                 `json:"purpose"`
	Sections []*SectionPlanResponse `json:"sections"`
}

// BlueprintResponse 蓝图响应
type BlueprintResponse struct {
	ProjectID string                 `json:"project_id"`
	Chapters  []*ChapterPlanResponse `json:"chapters"`
	Approved  bool                   `json:"approved"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ToBlueprintResponse 将蓝图实体转换为响应 DTO
func ToBlueprintResponse(b *entity.Blueprint) *BlueprintResponse {
	if b == nil {
		return nil
	}
	resp := &BlueprintResponse{
		ProjectID: b.ProjectID,
		Chapters:  make([]*ChapterPlanResponse, 0, len(b.Chapters)),
		Approved:  b.Approved,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	for i := range b.Chapters {
		chapter := &b.Chapters[i]
		cr := &ChapterPlanResponse{
			ID:       chapter.ID,
			Title:    chapter.Title,
			Purpose:  chapter.Purpose,
			Sections: make([]*SectionPlanResponse, 0, len(chapter.Sections)),
		}
		for j := range chapter.Sections {
			section := &chapter.Sections[j]
			cr.Sections = append(cr.Sections, &SectionPlanResponse{
				ID:                   section.ID,
				Title:                section.Title,
				Purpose:              section.Purpose,
				ExpectedContentTypes: section.ExpectedContentTypes,
			})
		}
		resp.Chapters = append(resp.Chapters, cr)
	}
	return resp
}
