// Package pipeline 实现站点生成流水线的各阶段执行器与控制器
package pipeline

import (
	"context"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/infrastructure/llm"
)

// EmitFunc 阶段执行过程中的事件回调
// 事件按阶段内顺序送达，通道关闭由控制器负责
type EmitFunc func(event entity.PipelineEvent)

// StageExecutor 阶段执行器
// 实现必须可重入：同一项目重复执行时按单元幂等跳过已完成的工作
type StageExecutor interface {
	Stage() entity.Stage
	Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error
}

// Completer 结构化补全接口
type Completer interface {
	Complete(ctx context.Context, req *llm.CompletionRequest, out any) error
}

// ImageGenerator 图片生成接口
type ImageGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) (data []byte, ext string, err error)
}

// SiteStore 站点产物存储接口
type SiteStore interface {
	WriteFile(projectID, name string, data []byte) error
	WriteImage(projectID, name string, data []byte) (string, error)
	HasImage(projectID, name string) bool
	CleanRendered(projectID string) error
	ProjectDir(projectID string) string
}

// StageLease 项目级阶段互斥租约
type StageLease interface {
	Acquire(ctx context.Context, projectID string) (token string, acquired bool, err error)
	Release(ctx context.Context, projectID, token string) error
}
