package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"z-site-gen-api/internal/domain/entity"
)

// SchemaRepository 章节结构仓储实现
type SchemaRepository struct {
	client *Client
}

// NewSchemaRepository 创建章节结构仓储
func NewSchemaRepository(client *Client) *SchemaRepository {
	return &SchemaRepository{client: client}
}

// UpsertChapter 写入单章结果，按 (project_id, chapter_id) 幂等
func (r *SchemaRepository) UpsertChapter(ctx context.Context, chapter *entity.ChapterSchema) error {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.UpsertChapter")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	introJSON, err := json.Marshal(chapter.Introduction)
	if err != nil {
		return fmt.Errorf("failed to marshal chapter introduction: %w", err)
	}
	sectionsJSON, err := json.Marshal(chapter.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal chapter sections: %w", err)
	}

	query := `
		INSERT INTO chapter_schemas (project_id, chapter_id, introduction, sections, image_path, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (project_id, chapter_id) DO UPDATE SET
			introduction = EXCLUDED.introduction,
			sections = EXCLUDED.sections,
			order_index = EXCLUDED.order_index,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = q.QueryRowContext(ctx, query,
		chapter.ProjectID, chapter.ChapterID, introJSON,
		sectionsJSON, chapter.ImagePath, chapter.OrderIndex,
	).Scan(&chapter.CreatedAt, &chapter.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert chapter schema: %w", err)
	}

	return nil
}

// GetChapter 获取单章结果
func (r *SchemaRepository) GetChapter(ctx context.Context, projectID, chapterID string) (*entity.ChapterSchema, error) {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.GetChapter")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT project_id, chapter_id, introduction, sections, image_path, order_index, created_at, updated_at
		FROM chapter_schemas
		WHERE project_id = $1 AND chapter_id = $2
	`

	var chapter entity.ChapterSchema
	var introJSON, sectionsJSON []byte

	err := q.QueryRowContext(ctx, query, projectID, chapterID).Scan(
		&chapter.ProjectID, &chapter.ChapterID, &introJSON,
		&sectionsJSON, &chapter.ImagePath, &chapter.OrderIndex,
		&chapter.CreatedAt, &chapter.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter schema: %w", err)
	}

	if err := json.Unmarshal(introJSON, &chapter.Introduction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chapter introduction: %w", err)
	}
	if err := json.Unmarshal(sectionsJSON, &chapter.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chapter sections: %w", err)
	}

	return &chapter, nil
}

// ListChapters 按序号获取项目全部章节
func (r *SchemaRepository) ListChapters(ctx context.Context, projectID string) ([]entity.ChapterSchema, error) {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.ListChapters")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT project_id, chapter_id, introduction, sections, image_path, order_index, created_at, updated_at
		FROM chapter_schemas
		WHERE project_id = $1
		ORDER BY order_index ASC
	`

	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapter schemas: %w", err)
	}
	defer rows.Close()

	var chapters []entity.ChapterSchema
	for rows.Next() {
		var chapter entity.ChapterSchema
		var introJSON, sectionsJSON []byte

		if err := rows.Scan(
			&chapter.ProjectID, &chapter.ChapterID, &introJSON,
			&sectionsJSON, &chapter.ImagePath, &chapter.OrderIndex,
			&chapter.CreatedAt, &chapter.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan chapter schema: %w", err)
		}

		if err := json.Unmarshal(introJSON, &chapter.Introduction); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chapter introduction: %w", err)
		}
		if err := json.Unmarshal(sectionsJSON, &chapter.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chapter sections: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	return chapters, nil
}

// ExistingChapterIDs 返回已持久化的章节 ID 集合
func (r *SchemaRepository) ExistingChapterIDs(ctx context.Context, projectID string) (map[string]struct{}, error) {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.ExistingChapterIDs")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `SELECT chapter_id FROM chapter_schemas WHERE project_id = $1`

	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query chapter ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan chapter id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, nil
}

// SetImagePath 记录章节插图路径
func (r *SchemaRepository) SetImagePath(ctx context.Context, projectID, chapterID, imagePath string) error {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.SetImagePath")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE chapter_schemas SET image_path = $1, updated_at = NOW() WHERE project_id = $2 AND chapter_id = $3`
	_, err := q.ExecContext(ctx, query, imagePath, projectID, chapterID)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set chapter image path: %w", err)
	}

	return nil
}

// DeleteByProjectID 删除项目全部章节
func (r *SchemaRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.SchemaRepository.DeleteByProjectID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `DELETE FROM chapter_schemas WHERE project_id = $1`
	_, err := q.ExecContext(ctx, query, projectID)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter schemas: %w", err)
	}

	return nil
}
