// Package api exposes message generation over HTTP: a batch endpoint,
// a schema inspection endpoint and a websocket stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/config"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/internal/middleware"
	"github.com/hl7-message-forge/internal/service"
)

// Server is the HTTP front end over the composition engine.
type Server struct {
	cfg      *config.Manager
	composer *service.Composer
	bundles  domain.BundleGenerator
	provider domain.SchemaProvider
	log      *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

func NewServer(cfg *config.Manager, composer *service.Composer, bundles domain.BundleGenerator, provider domain.SchemaProvider, log *logrus.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())

	serverCfg := cfg.GetServerConfig()
	router.Use(middleware.RateLimit(serverCfg.RateLimit, serverCfg.RateBurst))

	s := &Server{
		cfg:      cfg,
		composer: composer,
		bundles:  bundles,
		provider: provider,
		log:      log,
		router:   router,
	}
	s.setupRoutes()
	return s
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/messages/generate", middleware.RequestTimeout(30*time.Second), s.handleGenerate)
		v1.GET("/messages/stream", s.handleStream)
		v1.GET("/schemas/trigger-events/:code", s.handleTriggerEvent)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
