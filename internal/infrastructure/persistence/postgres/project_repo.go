// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
)

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	client *Client
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	configJSON, err := json.Marshal(project.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	query := `
		INSERT INTO projects (id, topic, config, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = q.QueryRowContext(ctx, query,
		project.ID, project.Topic, configJSON, project.Status,
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, topic, config, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var project entity.Project
	var configJSON []byte
	err := q.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Topic, &configJSON, &project.Status,
		&project.CreatedAt, &project.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := json.Unmarshal(configJSON, &project.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project config: %w", err)
	}

	return &project, nil
}

// Delete 删除项目及其关联数据
// 蓝图与章节表通过外键级联删除
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `DELETE FROM projects WHERE id = $1`
	_, err := q.ExecContext(ctx, query, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// List 获取项目列表
func (r *ProjectRepository) List(ctx context.Context, filter *repository.ProjectFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.List")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	// 构建查询条件
	whereClause := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.Status != "" {
			whereClause += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, filter.Status)
			argIdx++
		}
	}

	// 获取总数
	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM projects WHERE %s`, whereClause)
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	// 获取列表
	query := fmt.Sprintf(`
		SELECT id, topic, config, status, created_at, updated_at
		FROM projects
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)

	args = append(args, pagination.Limit(), pagination.Offset())

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*entity.Project
	for rows.Next() {
		var project entity.Project
		var configJSON []byte
		if err := rows.Scan(
			&project.ID, &project.Topic, &configJSON, &project.Status,
			&project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if err := json.Unmarshal(configJSON, &project.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project config: %w", err)
		}
		projects = append(projects, &project)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

// UpdateStatus 更新项目生命周期状态
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status entity.ProjectStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateStatus")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, status, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project status: %w", err)
	}

	return nil
}
