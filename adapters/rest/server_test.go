package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/core"
)

// memStore is a minimal in-memory core.Store for handler tests.
type memStore struct {
	mu         sync.RWMutex
	tasks      map[string]map[string]core.Task
	activities map[string][]core.Activity
}

func newMemStore() *memStore {
	return &memStore{
		tasks:      map[string]map[string]core.Task{},
		activities: map[string][]core.Activity{},
	}
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) ListTasks(_ context.Context, ownerID string) ([]core.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Task, 0, len(m.tasks[ownerID]))
	for _, t := range m.tasks[ownerID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, ownerID, taskID string) (core.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[ownerID][taskID]
	if !ok {
		return core.Task{}, core.ErrNotFound
	}
	return t, nil
}

func (m *memStore) CreateTask(_ context.Context, t core.Task) (core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks[t.OwnerID] == nil {
		m.tasks[t.OwnerID] = map[string]core.Task{}
	}
	m.tasks[t.OwnerID][t.ID] = t
	return t, nil
}

func (m *memStore) UpdateTask(_ context.Context, t core.Task) (core.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.OwnerID][t.ID]; !ok {
		return core.Task{}, core.ErrNotFound
	}
	m.tasks[t.OwnerID][t.ID] = t
	return t, nil
}

func (m *memStore) DeleteTask(_ context.Context, ownerID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[ownerID][taskID]; !ok {
		return core.ErrNotFound
	}
	delete(m.tasks[ownerID], taskID)
	delete(m.activities, taskID)
	return nil
}

func (m *memStore) AppendActivity(_ context.Context, ownerID, taskID string, a core.Activity) (core.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[ownerID][taskID]; !ok {
		return core.Activity{}, core.ErrNotFound
	}
	m.activities[taskID] = append(m.activities[taskID], a)
	return a, nil
}

func (m *memStore) ListActivities(_ context.Context, ownerID, taskID string, limit int) ([]core.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tasks[ownerID][taskID]; !ok {
		return nil, core.ErrNotFound
	}
	stored := m.activities[taskID]
	out := make([]core.Activity, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListRecentActivities(_ context.Context, ownerID string, limit int) ([]core.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Activity
	for taskID := range m.activities {
		if _, ok := m.tasks[ownerID][taskID]; ok {
			out = append(out, m.activities[taskID]...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(newMemStore(), nil, nil, log)
	return New(svc, log)
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func createTaskHTTP(t *testing.T, srv *Server, user, title string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", user, map[string]any{
		"title":             title,
		"estimatedDuration": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Task core.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Task.ID
}

func TestMissingUserHeaderRejected(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetTask(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "ship release")

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ship release")
}

func TestCreateTask_ValidationMapsTo400(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", "alice", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTask_MissingMapsTo404(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/nope", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerScoping(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "private")

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/"+id, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "work")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%s/status", id), "alice",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Task core.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, core.StatusCompleted, out.Task.Status)
	assert.Equal(t, 100, out.Task.CompletionPercentage)
}

func TestStatusEndpoint_UnknownStatus400(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "work")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%s/status", id), "alice",
		map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimerEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "timed")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%s/timer/start", id), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%s/timer/stop", id), "alice",
		map[string]any{"elapsedMs": 600000})
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Task core.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(600000), out.Task.TotalElapsed)
	assert.False(t, out.Task.TimerRunning)
}

func TestBatchStatus_PartialFailureReturns207(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "one")

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks/batch/status", "alice",
		map[string]any{"taskIds": []string{id, "missing"}, "status": "completed"})
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	var res core.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{id}, res.Updated)
	assert.Contains(t, res.Failed, "missing")
}

func TestBatchStatus_AllOkReturns200(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	id := createTaskHTTP(t, srv, "alice", "one")

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks/batch/status", "alice",
		map[string]any{"taskIds": []string{id}, "status": "in-progress"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDependencyCheckEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	dep := createTaskHTTP(t, srv, "alice", "first")

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", "alice", map[string]any{
		"title":             "second",
		"estimatedDuration": 30,
		"dependencies":      []string{dep},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Task core.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/tasks/%s/dependencies/check", created.Task.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"satisfied":false`)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
