package app

import (
	"encoding/json"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/testutil"
	"lingo_edu_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "app-test-secret-0123456789abcdefghij"

func newTestApp(t *testing.T) *App {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:     config.ServerConfig{Port: "0", Mode: gin.TestMode},
		JWT:        config.JWTConfig{Secret: secret},
		Storage:    config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Assessment: config.DefaultAssessmentConfig(),
	}
	a := New(cfg, testutil.OpenTestDB(t), nil)
	t.Cleanup(a.services.proctor.Stop)
	return a
}

func serve(a *App, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t)

	w := serve(a, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Status     string            `json:"status"`
			Components map[string]string `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, map[string]string{"database": "up"}, body.Data.Components)

	w = serve(a, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAttemptRoutesRequireStudent(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, serve(a, http.MethodGet, "/api/attempts/abc", "").Code)

	teacher, err := util.IssueToken(&model.User{BaseModel: model.BaseModel{ID: 5}, Role: model.Teacher}, secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(a, http.MethodGet, "/api/attempts/abc", teacher).Code)

	student, err := util.IssueToken(&model.User{BaseModel: model.BaseModel{ID: 6}, Role: model.Student}, secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/api/attempts/abc", student).Code)
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodPost, "/api/assessments/77/attempts", student).Code)
}

func TestConfigCallbacksReceiveReloadedConfig(t *testing.T) {
	a := newTestApp(t)

	var got *config.Config
	a.RegisterConfigCallback(func(c *config.Config) { got = c })

	reloaded := &config.Config{Assessment: config.AssessmentConfig{EnforceExerciseAttemptLimit: true, SweepIntervalSeconds: 5}}
	a.applyConfig(reloaded)
	assert.Same(t, reloaded, got)
}
