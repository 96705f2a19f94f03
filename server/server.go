// Package server exposes the conversation loop over HTTP: a single chat
// endpoint with buffered and streaming response modes, plus liveness.
package server

import (
	"context"
	"net/http"
	"time"

	"stelagent/agent"
	"stelagent/events"
	"stelagent/fallback"
	"stelagent/logger"
	"stelagent/tools"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wires the HTTP surface to the orchestrator and the degraded path.
type Server struct {
	orchestrator *agent.Orchestrator
	fallback     *fallback.Handler
	registry     *tools.Registry
	emitter      *events.Emitter
	log          logger.Logger
	httpServer   *http.Server
}

// Config configures the HTTP server.
type Config struct {
	Addr         string
	Orchestrator *agent.Orchestrator
	Fallback     *fallback.Handler
	Registry     *tools.Registry
	Emitter      *events.Emitter
	Logger       logger.Logger
}

// New builds the server and its router.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	s := &Server{
		orchestrator: cfg.Orchestrator,
		fallback:     cfg.Fallback,
		registry:     cfg.Registry,
		emitter:      emitter,
		log:          log.With(logger.String("component", "server")),
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Router(),
	}
	return s
}

// Router assembles the gin engine. Exposed for httptest.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.POST("/api/chat", s.handleChat)
	r.GET("/healthz", s.handleHealth)
	return r
}

// Start begins serving. Blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tools":  s.registry.Len(),
	})
}
