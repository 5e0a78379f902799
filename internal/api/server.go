package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spot-trader/internal/engine"
	"spot-trader/internal/interfaces"
	"spot-trader/internal/logger"
	"spot-trader/internal/trace"
	"spot-trader/internal/types"
)

const (
	ServiceName         = "spot-trader"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
	shutdownTimeout     = 5 * time.Second
)

// Server exposes engine state and operator controls over HTTP.
type Server struct {
	engine   interfaces.Engine
	gatherer prometheus.Gatherer
	router   *gin.Engine
}

// NewServer builds the router. gatherer may be nil, which disables /metrics.
func NewServer(eng interfaces.Engine, gatherer prometheus.Gatherer) *Server {
	s := &Server{engine: eng, gatherer: gatherer}
	s.router = s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(logMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", s.health)
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/symbols", s.listSymbols)
	v1.GET("/symbols/:symbol/state", s.symbolState)
	v1.GET("/symbols/:symbol/decision", s.lastDecision)
	v1.PUT("/symbols/:symbol/target", s.setTarget)
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"symbols":   len(s.engine.Symbols()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.engine.Symbols()})
}

func (s *Server) symbolState(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	snap, ok := s.engine.Snapshot(symbol)
	if !ok {
		errorJSON(c, http.StatusNotFound, "unknown symbol")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) lastDecision(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if _, ok := s.engine.Snapshot(symbol); !ok {
		errorJSON(c, http.StatusNotFound, "unknown symbol")
		return
	}
	res, ok := s.engine.LastResult(symbol)
	if !ok {
		errorJSON(c, http.StatusNotFound, "no decision yet")
		return
	}
	c.JSON(http.StatusOK, res)
}

type targetRequest struct {
	Target string `json:"target"`
}

func (s *Server) setTarget(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	err := s.engine.SetTarget(c.Request.Context(), symbol, types.Action(req.Target))
	switch {
	case errors.Is(err, engine.ErrUnknownSymbol):
		errorJSON(c, http.StatusNotFound, "unknown symbol")
		return
	case err != nil:
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	snap, _ := s.engine.Snapshot(symbol)
	c.JSON(http.StatusOK, snap)
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"error":      msg,
		"request_id": c.GetString(RequestIDContextKey),
	})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set(RequestIDContextKey, requestID)
		c.Next()
	}
}

// logMiddleware traces each request and logs it through the application logger.
func logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := trace.StartSpan(c.Request.Context(), "http "+c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		logger.Debug(ctx, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(RequestIDContextKey),
		)
	}
}
