package healthcheckController

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func get(c *HealthCheckController, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	c.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(New("render", pinger{err: errors.New("down")}, logger.Nop()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","app":"render"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	rec := get(New("render", pinger{}, logger.Nop()), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(New("render", pinger{err: errors.New("down")}, logger.Nop()), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
