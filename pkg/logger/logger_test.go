package logger

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-admin-api/pkg/config"
)

func TestNewWithRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "debug", Format: "console", File: file}}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("hello")
	_ = l.Sync()

	writer := RotatingWriter(cfg.Log)
	assert.Equal(t, file, writer.Filename)
	assert.Equal(t, 100, writer.MaxSize)
}

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
