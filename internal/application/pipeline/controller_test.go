package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
	apperrors "z-site-gen-api/pkg/errors"
)

type fakeProjectRepo struct {
	mu            sync.Mutex
	project       *entity.Project
	getErr        error
	updateErr     error
	statusUpdates []entity.ProjectStatus
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *entity.Project) error { return nil }

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return f.project, f.getErr
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeProjectRepo) List(ctx context.Context, filter *repository.ProjectFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return nil, nil
}

func (f *fakeProjectRepo) UpdateStatus(ctx context.Context, id string, status entity.ProjectStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, status)
	if f.updateErr == nil && f.project != nil && f.project.ID == id {
		f.project.Status = status
	}
	return f.updateErr
}

func (f *fakeProjectRepo) updates() []entity.ProjectStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.ProjectStatus, len(f.statusUpdates))
	copy(out, f.statusUpdates)
	return out
}

type fakeLease struct {
	mu       sync.Mutex
	rejected bool
	acquires int
	releases int
}

func (f *fakeLease) Acquire(ctx context.Context, projectID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.rejected {
		return "", false, nil
	}
	return "token-1", true, nil
}

func (f *fakeLease) Release(ctx context.Context, projectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *fakeLease) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

type fakeExecutor struct {
	stage entity.Stage
	fn    func(ctx context.Context, project *entity.Project, emit EmitFunc) error
}

func (f *fakeExecutor) Stage() entity.Stage { return f.stage }

func (f *fakeExecutor) Execute(ctx context.Context, project *entity.Project, emit EmitFunc) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, project, emit)
}

func drain(t *testing.T, events <-chan entity.PipelineEvent) []entity.PipelineEvent {
	t.Helper()
	var out []entity.PipelineEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out draining events")
		}
	}
}

func TestRunStageUnknownStage(t *testing.T) {
	c := NewController(&fakeProjectRepo{}, &fakeLease{})

	_, err := c.RunStage(context.Background(), "p1", entity.Stage("export"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))
}

func TestRunStageProjectNotFound(t *testing.T) {
	c := NewController(&fakeProjectRepo{}, &fakeLease{},
		&fakeExecutor{stage: entity.StageBlueprint})

	_, err := c.RunStage(context.Background(), "missing", entity.StageBlueprint)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProjectNotFound))
}

func TestRunStageStateViolation(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusCreated}}
	lease := &fakeLease{}
	c := NewController(repo, lease, &fakeExecutor{stage: entity.StageContent})

	_, err := c.RunStage(context.Background(), "p1", entity.StageContent)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateViolation))

	// 准入失败不应触碰租约
	assert.Equal(t, 0, lease.acquires)
}

func TestRunStageLeaseConflict(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusCreated}}
	lease := &fakeLease{rejected: true}
	c := NewController(repo, lease, &fakeExecutor{stage: entity.StageBlueprint})

	_, err := c.RunStage(context.Background(), "p1", entity.StageBlueprint)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStageLocked))
}

func TestRunStageSuccessAdvancesStatus(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusBlueprintApproved}}
	lease := &fakeLease{}
	exec := &fakeExecutor{
		stage: entity.StageContent,
		fn: func(ctx context.Context, project *entity.Project, emit EmitFunc) error {
			ev := entity.NewEvent(entity.EventProgress, project.ID, entity.StageContent)
			ev.Done, ev.Total = 1, 1
			emit(ev)
			return nil
		},
	}
	c := NewController(repo, lease, exec)

	events, err := c.RunStage(context.Background(), "p1", entity.StageContent)
	require.NoError(t, err)

	got := drain(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, entity.EventProgress, got[0].Type)

	assert.Equal(t, []entity.ProjectStatus{entity.ProjectStatusSchemaGenerated}, repo.updates())
	assert.Equal(t, 1, lease.releaseCount())
}

func TestRunStageIllustrationKeepsStatus(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusSchemaGenerated}}
	c := NewController(repo, &fakeLease{}, &fakeExecutor{stage: entity.StageIllustration})

	events, err := c.RunStage(context.Background(), "p1", entity.StageIllustration)
	require.NoError(t, err)
	drain(t, events)

	assert.Empty(t, repo.updates())
}

func TestRunStageFailureEmitsError(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusCreated}}
	lease := &fakeLease{}
	exec := &fakeExecutor{
		stage: entity.StageBlueprint,
		fn: func(ctx context.Context, project *entity.Project, emit EmitFunc) error {
			return apperrors.New(apperrors.CodeGenerationFailed, "模型输出无法解析")
		},
	}
	c := NewController(repo, lease, exec)

	events, err := c.RunStage(context.Background(), "p1", entity.StageBlueprint)
	require.NoError(t, err)

	got := drain(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, entity.EventError, got[0].Type)
	assert.Equal(t, "模型输出无法解析", got[0].Message)

	payload, ok := got[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeGenerationFailed, payload["code"])

	// 失败不推进状态，租约照常释放
	assert.Empty(t, repo.updates())
	assert.Equal(t, 1, lease.releaseCount())
}

func TestRunStageCancelledEmitsNoError(t *testing.T) {
	repo := &fakeProjectRepo{project: &entity.Project{ID: "p1", Status: entity.ProjectStatusCreated}}
	exec := &fakeExecutor{
		stage: entity.StageBlueprint,
		fn: func(ctx context.Context, project *entity.Project, emit EmitFunc) error {
			return context.Canceled
		},
	}
	c := NewController(repo, &fakeLease{}, exec)

	events, err := c.RunStage(context.Background(), "p1", entity.StageBlueprint)
	require.NoError(t, err)

	got := drain(t, events)
	assert.Empty(t, got)
	assert.Empty(t, repo.updates())
}

func TestRunStageStatusUpdateFailure(t *testing.T) {
	repo := &fakeProjectRepo{
		project:   &entity.Project{ID: "p1", Status: entity.ProjectStatusSchemaGenerated},
		updateErr: errors.New("db down"),
	}
	c := NewController(repo, &fakeLease{}, &fakeExecutor{stage: entity.StageRender})

	events, err := c.RunStage(context.Background(), "p1", entity.StageRender)
	require.NoError(t, err)

	got := drain(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, entity.EventError, got[0].Type)
}
