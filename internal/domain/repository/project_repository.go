// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-site-gen-api/internal/domain/entity"
)

// ProjectFilter 项目过滤条件
type ProjectFilter struct {
	Status entity.ProjectStatus
}

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// Delete 删除项目及其关联数据
	Delete(ctx context.Context, id string) error

	// List 获取项目列表
	List(ctx context.Context, filter *ProjectFilter, pagination Pagination) (*PagedResult[*entity.Project], error)

	// UpdateStatus 更新项目生命周期状态
	UpdateStatus(ctx context.Context, id string, status entity.ProjectStatus) error
}
