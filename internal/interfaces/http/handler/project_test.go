package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-site-gen-api/internal/domain/entity"
	"z-site-gen-api/internal/domain/repository"
)

type stubProjectRepo struct {
	projects map[string]*entity.Project
	created  []*entity.Project
	deleted  []string
}

func newStubProjectRepo(projects ...*entity.Project) *stubProjectRepo {
	m := make(map[string]*entity.Project, len(projects))
	for _, p := range projects {
		m[p.ID] = p
	}
	return &stubProjectRepo{projects: m}
}

func (s *stubProjectRepo) Create(ctx context.Context, project *entity.Project) error {
	s.created = append(s.created, project)
	s.projects[project.ID] = project
	return nil
}

func (s *stubProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return s.projects[id], nil
}

func (s *stubProjectRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.projects, id)
	return nil
}

func (s *stubProjectRepo) List(ctx context.Context, filter *repository.ProjectFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	var items []*entity.Project
	for _, p := range s.projects {
		if filter != nil && filter.Status != "" && p.Status != filter.Status {
			continue
		}
		items = append(items, p)
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (s *stubProjectRepo) UpdateStatus(ctx context.Context, id string, status entity.ProjectStatus) error {
	if p, ok := s.projects[id]; ok {
		p.Status = status
	}
	return nil
}

type stubSiteRemover struct {
	deleted []string
}

func (s *stubSiteRemover) Delete(projectID string) error {
	s.deleted = append(s.deleted, projectID)
	return nil
}

type stubStageGuard struct {
	held bool
	err  error
}

func (s *stubStageGuard) Held(ctx context.Context, projectID string) (bool, error) {
	return s.held, s.err
}

func projectTestRouter(repo *stubProjectRepo, remover *stubSiteRemover) *gin.Engine {
	return projectTestRouterWithGuard(repo, remover, &stubStageGuard{})
}

func projectTestRouterWithGuard(repo *stubProjectRepo, remover *stubSiteRemover, guard *stubStageGuard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProjectHandler(repo, remover, guard)
	r := gin.New()
	r.GET("/v1/projects", h.ListProjects)
	r.POST("/v1/projects", h.CreateProject)
	r.GET("/v1/projects/:pid", h.GetProject)
	r.DELETE("/v1/projects/:pid", h.DeleteProject)
	return r
}

func TestCreateProject(t *testing.T) {
	repo := newStubProjectRepo()
	router := projectTestRouter(repo, &stubSiteRemover{})

	body := `{"topic": "History of the Internet", "config": {"depth": "deep_dive", "generate_images": false}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/projects", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)

	created := repo.created[0]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "History of the Internet", created.Topic)
	assert.Equal(t, entity.DepthDeepDive, created.Config.Depth)
	assert.Equal(t, entity.ToneProfessional, created.Config.Tone)
	assert.False(t, created.Config.GenerateImages)
	assert.Equal(t, entity.ProjectStatusCreated, created.Status)
}

func TestCreateProjectValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing topic", `{"config": {}}`},
		{"invalid depth", `{"topic": "x", "config": {"depth": "endless"}}`},
		{"invalid tone", `{"topic": "x", "config": {"tone": "sarcastic"}}`},
		{"malformed json", `{"topic": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubProjectRepo()
			router := projectTestRouter(repo, &stubSiteRemover{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/projects", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestGetProject(t *testing.T) {
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())
	router := projectTestRouter(newStubProjectRepo(project), &stubSiteRemover{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects/p1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "p1", resp.Data.ID)
	assert.Equal(t, "created", resp.Data.Status)
}

func TestGetProjectNotFound(t *testing.T) {
	router := projectTestRouter(newStubProjectRepo(), &stubSiteRemover{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProjectRemovesSiteFiles(t *testing.T) {
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())
	repo := newStubProjectRepo(project)
	remover := &stubSiteRemover{}
	router := projectTestRouter(repo, remover)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/projects/p1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"p1"}, repo.deleted)
	assert.Equal(t, []string{"p1"}, remover.deleted)
}

func TestListProjectsFiltersByStatus(t *testing.T) {
	p1 := entity.NewProject("p1", "a", entity.DefaultProjectConfig())
	p2 := entity.NewProject("p2", "b", entity.DefaultProjectConfig())
	p2.Status = entity.ProjectStatusCompleted
	router := projectTestRouter(newStubProjectRepo(p1, p2), &stubSiteRemover{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects?status=completed", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Projects []struct {
				ID string `json:"id"`
			} `json:"projects"`
		} `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Projects, 1)
	assert.Equal(t, "p2", resp.Data.Projects[0].ID)
	assert.Equal(t, 1, resp.Meta.Total)
}

func TestDeleteProjectBlockedWhileStageRunning(t *testing.T) {
	project := entity.NewProject("p1", "topic", entity.DefaultProjectConfig())
	repo := newStubProjectRepo(project)
	remover := &stubSiteRemover{}
	router := projectTestRouterWithGuard(repo, remover, &stubStageGuard{held: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/projects/p1", nil))

	// 阶段运行中删除返回冲突，项目与站点文件原样保留
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, repo.deleted)
	assert.Empty(t, remover.deleted)
}
