package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief-claims-api/models"
	"relief-claims-api/repository"
	"relief-claims-api/utils"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T) (*gin.Engine, models.Officer) {
	t.Helper()
	store := repository.NewMemoryStore()
	officer := models.Officer{OfficerID: "o-1", Email: "adg@raipur.gov.in", Role: models.RoleADG}
	require.NoError(t, store.Officers().Create(context.Background(), &officer))

	r := gin.New()
	r.Use(AuthMiddleware(secret, store.Officers()))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, id)
	})
	r.GET("/collector-only", RequireRole(models.RoleCollector), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, officer
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, officer := newAuthRouter(t)
	token, err := utils.IssueToken(officer, secret, time.Hour, time.Now())
	require.NoError(t, err)

	w := get(r, "/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"o-1","role":"adg"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", "Bearer garbage").Code)

	stale, err := utils.IssueToken(models.Officer{OfficerID: "o-1", Role: models.RoleCollector}, secret, time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", "Bearer "+stale).Code)

	ghost, err := utils.IssueToken(models.Officer{OfficerID: "o-9", Role: models.RoleADG}, secret, time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", "Bearer "+ghost).Code)
}

func TestRequireRole(t *testing.T) {
	r, officer := newAuthRouter(t)
	token, err := utils.IssueToken(officer, secret, time.Hour, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/collector-only", "Bearer "+token).Code)
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddleware([]string{"https://relief.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://relief.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://relief.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/claims/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := get(r, "/claims/abc", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Request rejected", entry.Message)
	assert.Equal(t, "/claims/:id", entry.Data["path"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
}
