// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"golang.org/x/time/rate"

	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/pipeline"
)

// Server routes HTTP requests to a pipeline service.
type Server struct {
	app     *fiber.App
	svc     *pipeline.Service
	logger  *logging.Logger
	timeout time.Duration
}

// New registers every route. Requests are token-bucket limited when the
// configured rate is positive.
func New(svc *pipeline.Service, logger *logging.Logger) *Server {
	cfg := svc.Config().Server
	s := &Server{
		svc:     svc,
		logger:  logger,
		timeout: cfg.RequestTimeout,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "weathercast",
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	if cfg.RateLimit > 0 {
		s.app.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)))
	}

	s.app.Get("/health", s.Health)
	s.app.Get("/metrics", adaptor.HTTPHandler(svc.Metrics().Handler()))

	v1 := s.app.Group("/v1")
	v1.Get("/cities", s.Cities)
	v1.Get("/cities/:city/stationarity", s.Stationarity)
	v1.Post("/cities/:city/forecast/:model", s.Forecast)
	v1.Get("/cities/:city/comparison", s.Comparison)
	v1.Get("/cities/:city/analysis", s.Analysis)

	s.app.Use(s.NotFound)
	return s
}

// App exposes the fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), s.timeout)
}
