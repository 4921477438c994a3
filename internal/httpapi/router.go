// Package httpapi exposes sprite detection over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/store"
)

// BuildInfo is reported by GET /version.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg *config.Config, reports store.Store, logger *zap.Logger, info BuildInfo) *gin.Engine {
	h := NewHandler(cfg, reports, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Logger(logger))
	r.MaxMultipartMemory = cfg.HTTP.MaxUploadBytes

	r.GET("/health", func(c *gin.Context) {
		storeStatus := "ok"
		if err := reports.Ping(c.Request.Context()); err != nil {
			logger.Warn("store ping failed", zap.Error(err))
			storeStatus = "unavailable"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"store":   storeStatus,
			"version": info.Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	api := r.Group("/api/v1")
	{
		api.POST("/detect", h.Detect)
		api.GET("/detect/:md5", h.GetByMD5)
		api.POST("/layout", h.Layout)
		api.POST("/grid", h.Grid)
		api.POST("/autogrid", h.AutoGrid)
	}

	return r
}

// Serve runs handler on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
