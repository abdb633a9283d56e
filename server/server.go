// Package server exposes the HTTP surface: vault and milestone CRUD,
// notification history and settings, feedback append, health and metrics.
// Boundary validation happens here; core state never sees a malformed
// request.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ronniejay22/Knot-APP-sub003/engine/scoring"
	"github.com/ronniejay22/Knot-APP-sub003/internal/profile"
	"github.com/ronniejay22/Knot-APP-sub003/notify"
	"github.com/ronniejay22/Knot-APP-sub003/store"
)

type Server struct {
	e *echo.Echo

	Profile   *profile.Profile
	Store     *store.Store
	Scheduler *notify.Scheduler
	Metrics   *notify.Metrics
}

func NewServer(instanceProfile *profile.Profile, st *store.Store, scheduler *notify.Scheduler, metrics *notify.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		e:         e,
		Profile:   instanceProfile,
		Store:     st,
		Scheduler: scheduler,
		Metrics:   metrics,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	(&VaultHandler{Store: st}).Register(apiV1)
	(&MilestoneHandler{Store: st, Scheduler: scheduler}).Register(apiV1)
	(&NotificationHandler{Store: st}).Register(apiV1)
	(&FeedbackHandler{Store: st}).Register(apiV1)
	(&SettingsHandler{Store: st}).Register(apiV1)
	(&RecommendationHandler{Store: st, Scorer: scoring.NewScorer(st)}).Register(apiV1)

	return s
}

// Start launches the HTTP listener in the background. Startup failures
// other than a clean close are logged, not returned; callers watch the
// context for lifetime management.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shutdown complete")
}
