package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"animehome/backend/internal/database/dbtest"
	"animehome/backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, c *Checker) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	engine := gin.New()
	engine.GET("/health", c.Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthyWithDatabaseAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewChecker(logger.Discard(), 0)
	c.RegisterDatabaseCheck(dbtest.NewTestDB(t))
	c.RegisterRedisCheck(client)

	w, body := serve(t, c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	components := body["components"].(map[string]any)
	assert.Equal(t, "up", components["database"].(map[string]any)["status"])
	assert.Equal(t, "up", components["redis"].(map[string]any)["status"])
	assert.Equal(t, []string{"database", "redis"}, c.Names())
}

func TestRedisOutageDegradesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.SetError("LOADING")

	c := NewChecker(logger.Discard(), 0)
	c.RegisterDatabaseCheck(dbtest.NewTestDB(t))
	c.RegisterRedisCheck(client)

	w, body := serve(t, c)

	assert.Equal(t, http.StatusOK, w.Code)
	redisComponent := body["components"].(map[string]any)["redis"].(map[string]any)
	assert.Equal(t, "degraded", redisComponent["status"])
	assert.NotEmpty(t, redisComponent["error"])
}

func TestCriticalFailureIsUnavailable(t *testing.T) {
	c := NewChecker(logger.Discard(), 0)
	c.RegisterCheck("database", true, func(context.Context) (Status, string, error) {
		return StatusDown, "Database connection failed", errors.New("refused")
	})

	w, body := serve(t, c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", body["status"])
	assert.False(t, c.IsSystemHealthy())
}

func TestStatusIsCopied(t *testing.T) {
	c := NewChecker(nil, 0)
	c.RegisterCheck("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "running", nil
	})
	c.RunChecks(context.Background())

	status := c.GetStatus()
	status["self"].Status = StatusDown

	assert.Equal(t, StatusUp, c.GetStatus()["self"].Status)
}
