// Package server exposes the engine over HTTP for operator frontends.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"LottoLedger/internal/observability"
	"LottoLedger/internal/persistence"
	"LottoLedger/internal/session"
)

type Server struct {
	app *fiber.App
}

func NewServer(
	engine *session.Engine,
	agents *persistence.AgentStore,
	uppers *persistence.AgentStore,
	reports *persistence.ReportStore,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "lottoledger",
		DisableStartupMessage: true,
	})

	if metrics != nil {
		app.Use(func(c *fiber.Ctx) error {
			start := time.Now()
			err := c.Next()
			route := c.Route().Path
			metrics.HTTPRequests.WithLabelValues(route, statusLabel(c.Response().StatusCode())).Inc()
			metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		})
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1")
	RegisterBetRoutes(v1, engine)
	RegisterLimitRoutes(v1, engine)
	RegisterOverLimitRoutes(v1, engine)
	RegisterSessionRoutes(v1, engine)
	RegisterDirectoryRoutes(v1, engine, agents, uppers)
	RegisterReportRoutes(v1, engine, reports, agents, uppers, log)

	return &Server{app: app}
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func statusLabel(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
