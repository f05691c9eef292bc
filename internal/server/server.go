package server

import (
	"context"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pharmarag-chat/internal/bootstrap"
	"pharmarag-chat/internal/config"
	"pharmarag-chat/internal/pkg/serverutils"
)

const healthProbeTimeout = 3 * time.Second

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

type healthResponse struct {
	Status           string `json:"status"`
	Backend          string `json:"backend"`
	BackendURL       string `json:"backend_url"`
	ActiveWorkspaces int    `json:"active_workspaces"`
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
		// workspaces outlive the request, so values read from it must not alias fasthttp buffers
		Immutable: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, " + serverutils.HeaderSessionToken + ", " + serverutils.HeaderSessionTokenExpires,
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	s := &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}

	app.Get("/health", s.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(container.Metrics.Registry, promhttp.HandlerOpts{})))

	registerRoutes(app, container)

	return s
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{
		"address": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// health reports the gateway as up even when the backend is not; the
// backend field carries the probe result.
func (s *Server) health(ctx *fiber.Ctx) error {
	probeCtx, cancel := context.WithTimeout(ctx.UserContext(), healthProbeTimeout)
	defer cancel()

	res := healthResponse{
		Status:           "ok",
		BackendURL:       s.cfg.Backend.BaseURL(),
		ActiveWorkspaces: s.container.Workspaces.Count(),
	}
	status, err := s.container.Backend.Health(probeCtx)
	switch {
	case err != nil:
		res.Backend = "unreachable"
		s.container.Logger.Warn("SERVER", "Backend health probe failed", map[string]interface{}{"error": err.Error()})
	case status.Status == "":
		res.Backend = "unknown"
	default:
		res.Backend = status.Status
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check health", res))
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.SessionController.RegisterRoutes(api)
	c.ConversationController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)
	c.LibraryController.RegisterRoutes(api)

	c.EventsHandler.RegisterRoutes(api)
}
