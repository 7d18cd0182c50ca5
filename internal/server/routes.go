package server

import (
	"net/http"

	"HealthBuddy/internal/dashboard"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	// X-Forwarded-For is honored only when it arrives through a loopback or
	// private-network proxy.
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://*", "http://*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:       300,
	}))

	e.Use(LoggerMiddleware)

	dashboard.InitDashboardPackage(s.planner, s.tokens, s.hub)

	// Public routes
	e.GET("/health", s.healthHandler)
	e.GET("/health/server", dashboard.GetServerHealthHandler)
	e.GET("/options", dashboard.GetOptionsHandler)
	e.POST("/metrics/calculate", dashboard.CalculateMetricsHandler)

	var limited []echo.MiddlewareFunc
	if s.limiter != nil {
		limited = append(limited, s.limiter.Middleware)
	}
	e.POST("/sessions", dashboard.CreateSessionHandler, limited...)

	// Session routes
	authed := []echo.MiddlewareFunc{s.tokens.JwtAuthMiddleware}
	e.GET("/profile", dashboard.GetProfileHandler, authed...)
	e.PUT("/profile", dashboard.UpdateProfileHandler, authed...)
	e.GET("/metrics", dashboard.GetMetricsHandler, authed...)
	e.GET("/plans", dashboard.ListPlansHandler, authed...)
	e.GET("/plans/:week", dashboard.GetPlanHandler, authed...)
	e.GET("/chat", dashboard.GetChatHandler, authed...)
	e.DELETE("/chat", dashboard.ClearChatHandler, authed...)
	e.GET("/dashboard", dashboard.DashboardHandler, authed...)
	e.GET("/ws", dashboard.ChatWebSocketHandler, authed...)

	// Model-backed routes also share the per-IP limit
	generating := append(authed, limited...)
	e.POST("/plans", dashboard.GeneratePlanHandler, generating...)
	e.POST("/chat", dashboard.SendChatHandler, generating...)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "up", "storage": "memory"})
	}
	return c.JSON(http.StatusOK, s.db.Health())
}

// LoggerMiddleware tags every request with an id and attaches a request logger
// to both the echo context and the request context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set("logger", &logger)

		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

		return next(c)
	}
}
