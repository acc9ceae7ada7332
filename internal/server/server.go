package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/godispatch/core/internal/config"
)

type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

// NewServer builds the admin API. registerHandlerFn receives the /api/v1 group;
// gatherer is served unauthenticated on /metrics.
func NewServer(cfg *config.Configuration, gatherer prometheus.Gatherer, registerHandlerFn func(router *gin.RouterGroup)) (*Server, error) {
	if cfg.Server.ServerMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(zap.L().Named("http"), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L().Named("http"), true),
	)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	if cfg.Auth.Enabled {
		secret, err := readSecret(cfg.Auth.SecretFile)
		if err != nil {
			return nil, err
		}
		api.Use(Authenticator(secret))
	}
	registerHandlerFn(api)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server fails or is stopped. A stopped server returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	zap.S().Named("server").Infow("admin API listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop waits for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func readSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth secret: %w", err)
	}
	secret := []byte(strings.TrimSpace(string(data)))
	if len(secret) == 0 {
		return nil, errors.New("auth secret file is empty")
	}
	return secret, nil
}
