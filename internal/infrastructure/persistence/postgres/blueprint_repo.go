package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"z-site-gen-api/internal/domain/entity"
)

// BlueprintRepository 蓝图仓储实现
type BlueprintRepository struct {
	client *Client
}

// NewBlueprintRepository 创建蓝图仓储
func NewBlueprintRepository(client *Client) *BlueprintRepository {
	return &BlueprintRepository{client: client}
}

// Save 保存蓝图，同项目重复保存时覆盖
// 重新生成会重置批准标记
func (r *BlueprintRepository) Save(ctx context.Context, blueprint *entity.Blueprint) error {
	ctx, span := tracer.Start(ctx, "postgres.BlueprintRepository.Save")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	chaptersJSON, err := json.Marshal(blueprint.Chapters)
	if err != nil {
		return fmt.Errorf("failed to marshal blueprint chapters: %w", err)
	}

	query := `
		INSERT INTO blueprints (project_id, chapters, approved, created_at, updated_at)
		VALUES ($1, $2, FALSE, NOW(), NOW())
		ON CONFLICT (project_id) DO UPDATE SET
			chapters = EXCLUDED.chapters,
			approved = FALSE,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = q.QueryRowContext(ctx, query,
		blueprint.ProjectID, chaptersJSON,
	).Scan(&blueprint.CreatedAt, &blueprint.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save blueprint: %w", err)
	}

	blueprint.Approved = false
	return nil
}

// GetByProjectID 获取项目蓝图
func (r *BlueprintRepository) GetByProjectID(ctx context.Context, projectID string) (*entity.Blueprint, error) {
	ctx, span := tracer.Start(ctx, "postgres.BlueprintRepository.GetByProjectID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT project_id, chapters, approved, created_at, updated_at
		FROM blueprints
		WHERE project_id = $1
	`

	var blueprint entity.Blueprint
	var chaptersJSON []byte

	err := q.QueryRowContext(ctx, query, projectID).Scan(
		&blueprint.ProjectID, &chaptersJSON,
		&blueprint.Approved, &blueprint.CreatedAt, &blueprint.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get blueprint: %w", err)
	}

	if err := json.Unmarshal(chaptersJSON, &blueprint.Chapters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blueprint chapters: %w", err)
	}

	return &blueprint, nil
}

// Approve 批准蓝图
func (r *BlueprintRepository) Approve(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.BlueprintRepository.Approve")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE blueprints SET approved = TRUE, updated_at = NOW() WHERE project_id = $1`
	_, err := q.ExecContext(ctx, query, projectID)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to approve blueprint: %w", err)
	}

	return nil
}
