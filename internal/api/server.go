// Package api assembles the Gin engine: middleware, CORS and route
// registration for the gateway surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotorgate/rotorgate/internal/api/handlers"
	"github.com/rotorgate/rotorgate/internal/api/middleware"
	"github.com/rotorgate/rotorgate/internal/auth"
	"github.com/rotorgate/rotorgate/internal/executor"
	"github.com/rotorgate/rotorgate/internal/logging"
	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP front end.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// NewServer builds the engine and registers every route. Completions and
// models are served both under /v1 and at the stripped alias.
func NewServer(addr string, reg *registry.Registry, pool *auth.Pool, store auth.Store, lifecycle *auth.Lifecycle, executors map[registry.Provider]executor.Executor) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		logging.GinLogrusRecovery(),
		logging.GinLogrusLogger(),
		middleware.Metrics(),
		middleware.RequestDecompression(),
		corsMiddleware(),
	)

	chat := handlers.NewChatHandler(reg, pool, store, lifecycle, executors)
	models := handlers.NewModelsHandler(reg)
	health := handlers.NewHealthHandler(pool)

	engine.POST("/v1/chat/completions", chat.ChatCompletions)
	engine.POST("/chat/completions", chat.ChatCompletions)
	engine.GET("/v1/models", models.List)
	engine.GET("/models", models.List)
	engine.GET("/health", health.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 30 * time.Second,
		},
	}
}

// corsMiddleware answers preflight with a permissive policy and tags every
// response with the CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// Handler exposes the engine, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	log.Infof("gateway listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
