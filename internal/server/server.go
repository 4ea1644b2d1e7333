package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nukaze/vertex-search-rag/config"
)

const serviceName = "vertex-search-rag"

// Server wires the HTTP surface: search, feedback, health and metrics.
type Server struct {
	echo *echo.Echo
}

// New assembles the echo application around the injected handlers.
func New(cfg *config.Config, registry *prometheus.Registry, dispatcher Dispatcher, archiver Archiver) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
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
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	origins := cfg.General.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": serviceName,
			"status":  "running",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	metrics := newMetrics(registry)

	api := e.Group("/api")
	sh := &SearchHandler{
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
	sh.Register(api)
	fh := &FeedbackHandler{
		Archiver: archiver,
		Logger:   log.New(log.Writer(), "[FEEDBACK] ", log.LstdFlags),
	}
	fh.Register(api)

	return &Server{echo: e}
}

// Start blocks serving on addr until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// metrics are the request-level prometheus instruments.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragsvc_search_requests_total",
			Help: "Search requests by mode and result.",
		}, []string{"mode", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ragsvc_search_duration_seconds",
			Help:    "Search request duration by mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}
