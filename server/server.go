// Package server assembles the HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/studylog/studylog/internal/profile"
	"github.com/studylog/studylog/server/middleware"
	apiv1 "github.com/studylog/studylog/server/router/api/v1"
	"github.com/studylog/studylog/server/service/analytics"
	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
	"github.com/studylog/studylog/store/cache"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	analytics  *analytics.Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	loc, err := timezone.ParseTimezone(profile.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load server timezone")
	}

	analyticsService := analytics.NewService(store, cache.New(), loc, slog.Default(), analytics.Options{
		SummaryTTL:      profile.SummaryCacheTTL,
		RecentTTL:       profile.RecentCacheTTL,
		InitTTL:         profile.InitCacheTTL,
		FanOutWorkers:   profile.FanOutWorkers,
		SubQueryTimeout: profile.SubQueryTimeout,
		RecentLimit:     profile.RecentLimit,
	})

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(echomiddleware.CORS())
	echoServer.Use(middleware.RequestLogging(slog.Default()))

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})

	server := &Server{
		Secret:     profile.JWTSecret,
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		analytics:  analyticsService,
	}

	rateLimiter := middleware.NewRateLimiter(10, 20)
	apiV1Service := apiv1.NewAPIV1Service(server.Secret, profile, store, analyticsService)
	apiV1Service.Register(echoServer, rateLimiter)

	return server, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.Profile.Mode))
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server gracefully", slog.Any("error", err))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
