package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	apperrors "z-site-gen-api/pkg/errors"
	"z-site-gen-api/pkg/logger"
	"z-site-gen-api/pkg/metrics"
)

// eventBuffer 事件通道缓冲，消费方断连时生产侧不至于立刻阻塞
const eventBuffer = 16

// Controller 流水线调度器
// 负责阶段准入检查、项目级互斥与成功后的状态推进
type Controller struct {
	projects  repository.ProjectRepository
	lease     StageLease
	executors map[entity.Stage]StageExecutor
}

// NewController 创建调度器
func NewController(projects repository.ProjectRepository, lease StageLease, executors ...StageExecutor) *Controller {
	m := make(map[entity.Stage]StageExecutor, len(executors))
	for _, ex := range executors {
		m[ex.Stage()] = ex
	}
	return &Controller{
		projects:  projects,
		lease:     lease,
		executors: m,
	}
}

// RunStage 启动一个阶段并返回事件流
// 准入失败在返回前报错，不产生任何事件；通道在阶段结束后关闭
func (c *Controller) RunStage(ctx context.Context, projectID string, stage entity.Stage) (<-chan entity.PipelineEvent, error) {
	executor, ok := c.executors[stage]
	if !ok {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("未知阶段: %s", stage))
	}

	project, err := c.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}

	if !project.CanStartStage(stage) {
		return nil, apperrors.New(apperrors.CodeStateViolation,
			fmt.Sprintf("状态 %s 不允许启动阶段 %s", project.Status, stage))
	}

	token, acquired, err := c.lease.Acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperrors.ErrStageLocked
	}

	events := make(chan entity.PipelineEvent, eventBuffer)
	go c.run(ctx, project, stage, executor, token, events)
	return events, nil
}

func (c *Controller) run(ctx context.Context, project *entity.Project, stage entity.Stage, executor StageExecutor, token string, events chan<- entity.PipelineEvent) {
	metrics.ActiveStageRuns.Inc()
	start := time.Now()

	defer func() {
		metrics.ActiveStageRuns.Dec()
		metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())

		// 租约释放不依赖请求的生命周期
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.lease.Release(releaseCtx, project.ID, token); err != nil {
			logger.Warn(releaseCtx, "阶段租约释放失败",
				"project_id", project.ID,
				"stage", stage,
				"error", err,
			)
		}
		close(events)
	}()

	emit := func(ev entity.PipelineEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	err := executor.Execute(ctx, project, emit)
	switch {
	case err == nil:
		if next := entity.StageSuccessStatus(stage); next != "" {
			// 状态只在阶段成功时推进一次
			if uerr := c.projects.UpdateStatus(ctx, project.ID, next); uerr != nil {
				logger.Error(ctx, "阶段完成后状态更新失败", uerr,
					"project_id", project.ID,
					"stage", stage,
					"status", next,
				)
				c.emitError(emit, project.ID, stage, uerr)
				metrics.StageRunsTotal.WithLabelValues(string(stage), "failed").Inc()
				return
			}
		}
		metrics.StageRunsTotal.WithLabelValues(string(stage), "completed").Inc()
		logger.Info(ctx, "流水线阶段完成",
			"project_id", project.ID,
			"stage", stage,
			"duration", time.Since(start).String(),
		)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.StageRunsTotal.WithLabelValues(string(stage), "cancelled").Inc()
		logger.Warn(ctx, "流水线阶段被取消",
			"project_id", project.ID,
			"stage", stage,
		)

	default:
		metrics.StageRunsTotal.WithLabelValues(string(stage), "failed").Inc()
		logger.Error(ctx, "流水线阶段失败", err,
			"project_id", project.ID,
			"stage", stage,
		)
		c.emitError(emit, project.ID, stage, err)
	}
}

func (c *Controller) emitError(emit EmitFunc, projectID string, stage entity.Stage, err error) {
	ev := entity.NewEvent(entity.EventError, projectID, stage)
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		ev.Message = appErr.Message
		ev.Payload = map[string]any{"code": appErr.Code}
	} else {
		ev.Message = err.Error()
	}
	emit(ev)
}
