package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryWithZap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Ginzap(logger, "2006-01-02", true), RecoveryWithZap(logger, false))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, w.Body.String())

	panics := logs.FilterMessage("[Recovery from panic]").All()
	if assert.Len(t, panics, 1) {
		assert.Equal(t, "GET /boom", panics[0].ContextMap()["request"])
	}
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "secret-token")
			}
		}
	}
}

func TestGraceServerListenError(t *testing.T) {
	err := GraceServer("256.0.0.1:0", http.NotFoundHandler(), 0, 0)
	assert.Error(t, err)
}
