package repository

import (
	"context"

	"z-site-gen-api/internal/domain/entity"
)

// SchemaRepository 章节结构仓储接口
type SchemaRepository interface {
	// UpsertChapter 写入单章结果，按 (project_id, chapter_id) 幂等
	UpsertChapter(ctx context.Context, chapter *entity.ChapterSchema) error

	// GetChapter 获取单章结果
	GetChapter(ctx context.Context, projectID, chapterID string) (*entity.ChapterSchema, error)

	// ListChapters 按序号获取项目全部章节
	ListChapters(ctx context.Context, projectID string) ([]entity.ChapterSchema, error)

	// ExistingChapterIDs 返回已持久化的章节 ID 集合，供断点续跑跳过
	ExistingChapterIDs(ctx context.Context, projectID string) (map[string]struct{}, error)

	// SetImagePath 记录章节插图路径
	SetImagePath(ctx context.Context, projectID, chapterID, imagePath string) error

	// DeleteByProjectID 删除项目全部章节
	DeleteByProjectID(ctx context.Context, projectID string) error
}
