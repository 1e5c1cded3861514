// Package server exposes the bridge over the HTTP endpoints FreeRADIUS
// rlm_rest calls.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohit83k/radius-bridge/internal/bridge"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
	"github.com/mohit83k/radius-bridge/internal/subscriber"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles rlm_rest requests.
type Server struct {
	Addr            string
	Bridge          *bridge.Bridge
	Health          Pinger
	Logger          logger.Logger
	ShutdownTimeout time.Duration

	engine *gin.Engine
}

// NewServer returns a server with its routes registered.
func NewServer(addr string, b *bridge.Bridge, health Pinger, log logger.Logger, shutdownTimeout time.Duration) *Server {
	s := &Server{
		Addr:            addr,
		Bridge:          b,
		Health:          health,
		Logger:          log,
		ShutdownTimeout: shutdownTimeout,
	}

	engine := gin.New()
	engine.Use(
		RequestID(),
		AccessLog(log),
		Recovery(log, internalError),
	)

	engine.GET("/health", s.handleHealth)

	r := engine.Group("/radius")
	r.POST("/authorize", Recovery(log, serviceUnavailable), s.handleAuthorize)
	r.POST("/auth", Recovery(log, serviceUnavailable), s.handleAuthenticate)
	r.POST("/accounting", Recovery(log, noContent), s.handleAccounting)
	r.POST("/post-auth", Recovery(log, noContent), s.handlePostAuth)
	r.POST("/coa", s.handleCoA)
	r.POST("/terminate-session", s.handleTerminate)
	r.GET("/active-sessions", s.handleActiveSessions)

	s.engine = engine
	return s
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for at most ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("HTTP server listening on " + s.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// bind decodes the body. A malformed body is logged and treated as empty so
// every phase still answers with its safe default.
func (s *Server) bind(c *gin.Context) model.RadiusRequest {
	req, err := decodeRequest(c)
	if err != nil {
		s.Logger.WithFields(map[string]any{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDHeader),
		}).Warn(err.Error())
	}
	return req
}

func (s *Server) handleAuthorize(c *gin.Context) {
	req := s.bind(c)
	c.JSON(http.StatusOK, s.Bridge.Authorize(c.Request.Context(), req))
}

func (s *Server) handleAuthenticate(c *gin.Context) {
	req := s.bind(c)
	m, ok := s.Bridge.Authenticate(c.Request.Context(), req)
	if ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleAccounting(c *gin.Context) {
	req := s.bind(c)
	m := s.Bridge.Accounting(c.Request.Context(), req)
	if m == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handlePostAuth(c *gin.Context) {
	req := s.bind(c)
	s.Bridge.PostAuth(c.Request.Context(), req)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCoA(c *gin.Context) {
	req := s.bind(c)
	m, err := s.Bridge.CoA(c.Request.Context(), req)
	switch {
	case errors.Is(err, subscriber.ErrUnknownSubscriber):
		c.JSON(http.StatusNotFound, gin.H{"message": "Subscriber not found"})
	case err != nil:
		s.Logger.Error(fmt.Errorf("coa failed: %w", err))
		internalError(c)
	case m == nil:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, m)
	}
}

func (s *Server) handleTerminate(c *gin.Context) {
	req := s.bind(c)
	msg, err := s.Bridge.Terminate(c.Request.Context(), req)
	switch {
	case errors.Is(err, subscriber.ErrUnknownSubscriber):
		c.JSON(http.StatusNotFound, gin.H{"message": "Subscriber not found"})
	case err != nil:
		s.Logger.Error(fmt.Errorf("terminate failed: %w", err))
		internalError(c)
	default:
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func (s *Server) handleActiveSessions(c *gin.Context) {
	sessions := s.Bridge.ActiveSessions()
	if sessions == nil {
		sessions = []session.Session{}
	}
	c.JSON(http.StatusOK, gin.H{
		"active_sessions": sessions,
		"count":           len(sessions),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.Health.Ping(c.Request.Context()); err != nil {
		s.Logger.Error(fmt.Errorf("health check failed: %w", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func serviceUnavailable(c *gin.Context) {
	c.JSON(http.StatusOK, reply.Message(bridge.MsgServiceUnavailable))
}
