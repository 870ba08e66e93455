package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/projectflow-ai/projectflow/config"
	"github.com/projectflow-ai/projectflow/internal/analysis"
	"github.com/projectflow-ai/projectflow/internal/engine"
	"github.com/projectflow-ai/projectflow/internal/groups"
	"github.com/projectflow-ai/projectflow/internal/telemetry"
)

// Server exposes the mentoring engine and the teacher console over HTTP.
type Server struct {
	cfg      *config.Config
	engine   *engine.Engine
	groups   *groups.Manager
	analyzer *analysis.Analyzer
	tele     *telemetry.Telemetry
	logger   *log.Logger
}

func New(cfg *config.Config, eng *engine.Engine, gm *groups.Manager, an *analysis.Analyzer, tele *telemetry.Telemetry) *Server {
	return &Server{
		cfg:      cfg,
		engine:   eng,
		groups:   gm,
		analyzer: an,
		tele:     tele,
		logger:   log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// Echo builds the configured router. Split out of Run for tests.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.cfg.Telemetry.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	if s.authEnabled() {
		registerAuth(api.Group("/auth"), s.cfg.Server.AccessKey, []byte(s.cfg.Server.JWTSecret))
		api.Use(authMiddleware([]byte(s.cfg.Server.JWTSecret), "/api/auth"))
	}

	api.POST("/turn", s.handleTurn)

	api.POST("/groups", s.handleCreateGroup)
	api.GET("/groups", s.handleListGroups)
	api.GET("/groups/:id", s.handleGetGroup)
	api.PUT("/groups/:id", s.handleUpdateGroup)
	api.DELETE("/groups/:id", s.handleDeleteGroup)
	api.POST("/groups/:id/session/rotate", s.handleRotateSession)
	api.GET("/groups/:id/progress", s.handleGroupProgress)
	api.GET("/groups/:id/analysis", s.handleGroupAnalysis)
	api.GET("/progress", s.handleAllProgress)

	api.GET("/stats", s.handleStats)

	return e
}

func (s *Server) authEnabled() bool {
	return s.cfg.Server.AccessKey != "" && s.cfg.Server.JWTSecret != ""
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	addr := s.cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Printf("listening on %s", addr)
	return s.Echo().Start(addr)
}

func (s *Server) handleStats(c echo.Context) error {
	if s.tele == nil {
		return c.JSON(http.StatusOK, map[string]any{})
	}
	return c.JSON(http.StatusOK, s.tele.Snapshot())
}
