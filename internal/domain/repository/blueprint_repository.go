package repository

import (
	"context"

	"z-site-gen-api/internal/domain/entity"
)

// BlueprintRepository 蓝图仓储接口
type BlueprintRepository interface {
	// Save 保存蓝图，同项目重复保存时覆盖
	Save(ctx context.Context, blueprint *entity.Blueprint) error

	// GetByProjectID 获取项目蓝图
	GetByProjectID(ctx context.Context, projectID string) (*entity.Blueprint, error)

	// Approve 批准蓝图
	Approve(ctx context.Context, projectID string) error
}
