package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events"
	"github.com/noriskclient/launcherd/internal/events/bus"
	"github.com/noriskclient/launcherd/internal/profile/models"
	"github.com/noriskclient/launcherd/internal/profile/repository"
	"github.com/noriskclient/launcherd/internal/profile/service"
)

// MockEventBus implements bus.EventBus for testing
type MockEventBus struct{}

func (m *MockEventBus) Publish(ctx context.Context, subject string, event *bus.Event) error {
	return nil
}

func (m *MockEventBus) Subscribe(subject string, handler bus.EventHandler) (bus.Subscription, error) {
	return nil, nil
}

func (m *MockEventBus) Close() {}

func (m *MockEventBus) IsConnected() bool {
	return true
}

func setupTestRouter(t *testing.T) (*repository.MemoryRepository, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	log := logger.NewNop()
	svc := service.NewService(repo, events.NewEmitter(&MockEventBus{}, events.SourceProfiles, log), log)

	router := gin.New()
	SetupRoutes(router.Group("/api/v1"), svc, log)
	return repo, router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateProfile(t *testing.T) {
	_, router := setupTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{
		Name:        "Fabric 1.21",
		GameVersion: "1.21.1",
		Loader:      models.LoaderFabric,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp ProfileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.ID == "" || resp.Loader != models.LoaderFabric {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_CreateProfile_MissingFields(t *testing.T) {
	_, router := setupTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/profiles", map[string]string{"name": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandler_CreateProfile_BadLoader(t *testing.T) {
	_, router := setupTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{
		Name: "x", GameVersion: "1.0", Loader: "rift",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandler_GetProfile(t *testing.T) {
	repo, router := setupTestRouter(t)
	_ = repo.Create(context.Background(), &models.Profile{ID: "p1", Name: "One", GameVersion: "1.20"})

	w := doJSON(router, http.MethodGet, "/api/v1/profiles/p1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doJSON(router, http.MethodGet, "/api/v1/profiles/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandler_UpdateProfile(t *testing.T) {
	repo, router := setupTestRouter(t)
	_ = repo.Create(context.Background(), &models.Profile{ID: "p1", Name: "One", GameVersion: "1.20"})

	name := "Renamed"
	w := doJSON(router, http.MethodPut, "/api/v1/profiles/p1", UpdateProfileRequest{Name: &name})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	got, _ := repo.Get(context.Background(), "p1")
	if got.Name != "Renamed" {
		t.Errorf("expected name Renamed, got %s", got.Name)
	}
}

func TestHandler_DeleteAndList(t *testing.T) {
	repo, router := setupTestRouter(t)
	_ = repo.Create(context.Background(), &models.Profile{ID: "p1", Name: "One", GameVersion: "1.20"})
	_ = repo.Create(context.Background(), &models.Profile{ID: "p2", Name: "Two", GameVersion: "1.20"})

	w := doJSON(router, http.MethodDelete, "/api/v1/profiles/p1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	w = doJSON(router, http.MethodDelete, "/api/v1/profiles/p1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", w.Code)
	}

	w = doJSON(router, http.MethodGet, "/api/v1/profiles", nil)
	var resp ProfilesListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Total != 1 || resp.Profiles[0].ID != "p2" {
		t.Errorf("unexpected list: %+v", resp)
	}
}
