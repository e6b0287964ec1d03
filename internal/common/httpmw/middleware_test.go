package httpmw

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noriskclient/launcherd/internal/common/errors"
	"github.com/noriskclient/launcherd/internal/common/logger"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	r := newRouter(RequestLogger(logger.NewNop()))
	var seen interface{}
	r.GET("/x", func(c *gin.Context) {
		seen = c.Request.Context().Value(logger.RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/x", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, seen)

	w = serve(r, http.MethodGet, "/x", http.Header{RequestIDHeader: {"req-1"}})
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := newRouter(Recovery(logger.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body errors.AppError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeInternalError, body.Code)
}

func TestErrorHandler(t *testing.T) {
	r := newRouter(ErrorHandler(logger.NewNop()))
	r.GET("/app", func(c *gin.Context) { _ = c.Error(errors.NotLaunching("abc", nil)) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(stderrors.New("boom")) })

	w := serve(r, http.MethodGet, "/app", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeNotLaunching)

	w = serve(r, http.MethodGet, "/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:1420"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"http://localhost:1420"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:1420", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"http://evil.example"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	r = newRouter(CORS(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(0.001, 2))
	r.POST("/launch", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodPost, "/launch", nil).Code)
	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodPost, "/launch", nil).Code)

	w := serve(r, http.MethodPost, "/launch", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeRateLimited)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newRouter(RateLimit(0, 0))
	r.POST("/launch", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusAccepted, serve(r, http.MethodPost, "/launch", nil).Code)
	}
}

func TestTracing_PassesThrough(t *testing.T) {
	r := newRouter(Tracing("test"))
	r.GET("/x/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	assert.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "/x/1", nil).Code)
}
