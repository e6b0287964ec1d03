package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noriskclient/launcherd/internal/common/errors"
	"github.com/noriskclient/launcherd/internal/common/httpmw"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/launch/lifecycle"
	"github.com/noriskclient/launcherd/internal/launch/registry"
	"github.com/noriskclient/launcherd/internal/profile/repository"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// fakeLauncher keeps launches in a registry without running anything.
type fakeLauncher struct {
	mu       sync.Mutex
	reg      *registry.Registry
	profiles map[string]bool
	stopped  bool
}

func newFakeLauncher(profiles ...string) *fakeLauncher {
	f := &fakeLauncher{reg: registry.New(), profiles: map[string]bool{}}
	for _, p := range profiles {
		f.profiles[p] = true
	}
	return f
}

func (f *fakeLauncher) LaunchProfile(_ context.Context, id string) (v1.ProcessMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return v1.ProcessMetadata{}, lifecycle.ErrManagerStopped
	}
	if !f.profiles[id] {
		return v1.ProcessMetadata{}, repository.ErrNotFound
	}
	entry, err := f.reg.Register(id)
	if err != nil {
		return v1.ProcessMetadata{}, err
	}
	return entry.Snapshot(), nil
}

func (f *fakeLauncher) AbortProfileLaunch(_ context.Context, id string) error {
	_, err := f.reg.Abort(id)
	return err
}

func (f *fakeLauncher) IsProfileLaunching(id string) (v1.ProcessMetadata, bool) {
	return f.reg.Lookup(id)
}

func (f *fakeLauncher) ListLaunches() []v1.ProcessMetadata {
	return f.reg.List()
}

func setupTestRouter(t *testing.T, launcher Launcher, mw ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router.Group("/api/v1"), launcher, logger.NewNop(), mw...)
	return router
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLaunchProfile(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher("abc"))

	w := do(router, http.MethodPost, "/api/v1/profiles/abc/launch")
	require.Equal(t, http.StatusAccepted, w.Code)

	var meta v1.ProcessMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "abc", meta.ProfileID)
	assert.Equal(t, v1.ProcessStateStarting, meta.State)
	assert.NotEmpty(t, meta.ID)

	w = do(router, http.MethodPost, "/api/v1/profiles/abc/launch")
	assert.Equal(t, http.StatusConflict, w.Code)
	var appErr errors.AppError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appErr))
	assert.Equal(t, errors.ErrCodeAlreadyLaunching, appErr.Code)
}

func TestLaunchProfile_UnknownProfile(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher())

	w := do(router, http.MethodPost, "/api/v1/profiles/nope/launch")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeNotFound)
}

func TestLaunchProfile_ManagerStopped(t *testing.T) {
	launcher := newFakeLauncher("abc")
	launcher.stopped = true
	router := setupTestRouter(t, launcher)

	w := do(router, http.MethodPost, "/api/v1/profiles/abc/launch")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeServiceUnavailable)
}

func TestAbortProfileLaunch(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher("xyz"))

	w := do(router, http.MethodPost, "/api/v1/profiles/xyz/abort")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeNotLaunching)

	require.Equal(t, http.StatusAccepted, do(router, http.MethodPost, "/api/v1/profiles/xyz/launch").Code)

	w = do(router, http.MethodPost, "/api/v1/profiles/xyz/abort")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/profiles/xyz/launching")
	var resp v1.LaunchStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Launching)
	require.NotNil(t, resp.Process)
	assert.Equal(t, v1.ProcessStateStopping, resp.Process.State)
}

func TestIsProfileLaunching_NotLaunching(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher("abc"))

	w := do(router, http.MethodGet, "/api/v1/profiles/abc/launching")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"launching":false}`, w.Body.String())
}

func TestListLaunches(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher("abc", "xyz"))

	w := do(router, http.MethodGet, "/api/v1/launches")
	assert.JSONEq(t, `{"launches":[],"total":0}`, w.Body.String())

	do(router, http.MethodPost, "/api/v1/profiles/abc/launch")
	time.Sleep(time.Millisecond)
	do(router, http.MethodPost, "/api/v1/profiles/xyz/launch")

	w = do(router, http.MethodGet, "/api/v1/launches")
	var resp LaunchesListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "abc", resp.Launches[0].ProfileID)
	assert.Equal(t, "xyz", resp.Launches[1].ProfileID)
}

func TestLaunchProfile_RateLimited(t *testing.T) {
	router := setupTestRouter(t, newFakeLauncher("abc", "xyz"), httpmw.RateLimit(0.001, 1))

	assert.Equal(t, http.StatusAccepted, do(router, http.MethodPost, "/api/v1/profiles/abc/launch").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/api/v1/profiles/xyz/launch").Code)

	// Only the launch command is limited.
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/v1/profiles/abc/abort").Code)
}
