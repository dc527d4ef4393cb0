package entity

import (
	"fmt"
	"time"
)

// SectionPlan 蓝图中的小节规划
type SectionPlan struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Purpose              string   `json:"purpose"`
	ExpectedContentTypes []string `json:"expected_content_types"`
}

// ChapterPlan 蓝图中的单章规划
type ChapterPlan struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Purpose  string        `json:"purpose"`
	Sections []SectionPlan `json:"sections"`
}

// Blueprint 站点蓝图实体
// 由建筑师阶段产出，批准后驱动内容阶段
type Blueprint struct {
	ProjectID string        `json:"project_id"`
	Chapters  []ChapterPlan `json:"chapters"`
	Approved  bool          `json:"approved"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChapterByID 按章节 ID 查找规划
func (b *Blueprint) ChapterByID(id string) (*ChapterPlan, bool) {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i], true
		}
	}
	return nil, false
}

// Validate 校验蓝图结构完整性
func (b *Blueprint) Validate() error {
	if len(b.Chapters) == 0 {
		return fmt.Errorf("blueprint requires chapters")
	}
	for i := range b.Chapters {
		ch := &b.Chapters[i]
		if ch.Title == "" {
			return fmt.Errorf("chapter %d: title is required", i)
		}
		if len(ch.Sections) == 0 {
			return fmt.Errorf("chapter %d: sections are required", i)
		}
		for j := range ch.Sections {
			if ch.Sections[j].Title == "" {
				return fmt.Errorf("chapter %d section %d: title is required", i, j)
			}
		}
	}
	return nil
}
