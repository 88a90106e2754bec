// Package server exposes the patch, tool, version-control and agent
// operations over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/ai"
	"github.com/mrz1836/patchbay/internal/config"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/tool"
)

// HealthBody is the plain-text body of GET /health.
const HealthBody = "OK: patchbay server"

const shutdownTimeout = 10 * time.Second

// Deps are the components the handlers call into. All are required.
type Deps struct {
	Guard    *sandbox.Guard
	Applier  *patch.Applier
	Tools    *tool.Runner
	VCS      *git.Gateway
	Proposer ai.Proposer
	Agent    *agent.Orchestrator
}

// Server is the HTTP API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger zerolog.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.logger), requestLogger(s.logger), limitBody(constants.MaxRequestBytes))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/preview", s.preview)
		api.POST("/apply", s.apply)
		api.POST("/diff", s.diff)

		api.POST("/tools/:name", s.runTool)
		api.POST("/check", s.check)
		api.POST("/run", s.runModule)

		api.POST("/ai", s.complete)
		api.POST("/agent", s.runAgent)

		vcs := api.Group("/vcs")
		vcs.GET("/status", s.vcsStatus)
		vcs.POST("/commit", s.vcsCommit)
		vcs.POST("/revert", s.vcsRevert)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorBody{Error: "no route for " + c.Request.Method + " " + c.Request.URL.Path, Kind: "NotFound"})
	})
	return r
}

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts
// down gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, ready)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ready func(addr string)) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.logger.WithContext(context.WithoutCancel(ctx)) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	s.logger.Info().Str("addr", addr).Str("sandbox", s.deps.Guard.Root()).Msg("server listening")
	if ready != nil {
		ready(addr)
	}

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, HealthBody)
}
