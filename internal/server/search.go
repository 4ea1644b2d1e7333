package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Nukaze/vertex-search-rag/internal/auth"
	"github.com/Nukaze/vertex-search-rag/internal/gemini"
	"github.com/Nukaze/vertex-search-rag/internal/search"
	"github.com/Nukaze/vertex-search-rag/internal/vertex"
)

var searchTracer = otel.Tracer("ragsvc/server")

// Dispatcher runs a search intent in one of the two response modes.
type Dispatcher interface {
	Direct(ctx context.Context, intent search.Intent) (*search.Outcome, error)
	Stream(ctx context.Context, intent search.Intent) (*search.StreamResult, error)
}

// SearchHandler serves POST /api/vertex-search.
type SearchHandler struct {
	Dispatcher Dispatcher
	Metrics    *metrics
	Logger     *log.Logger
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/vertex-search", h.search)
}

func (h *SearchHandler) search(c echo.Context) error {
	started := time.Now()

	var intent search.Intent
	if err := c.Bind(&intent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	intent.Normalize()
	if err := intent.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req := c.Request()
	ctx, span := searchTracer.Start(req.Context(), "SearchHandler.search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.mode", intent.Mode),
		attribute.Int("search.page_size", intent.PageSize),
	)
	c.SetRequest(req.WithContext(ctx))

	var err error
	if intent.Mode == search.ModeDirect {
		err = h.direct(c, intent, started)
	} else {
		err = h.streaming(c, intent, started)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	h.Metrics.duration.WithLabelValues(intent.Mode).Observe(time.Since(started).Seconds())
	return err
}

func (h *SearchHandler) direct(c echo.Context, intent search.Intent, started time.Time) error {
	out, err := h.Dispatcher.Direct(c.Request().Context(), intent)
	if err != nil {
		return h.dispatchError(c, intent, started, err)
	}
	h.Metrics.requests.WithLabelValues(intent.Mode, "ok").Inc()
	return c.JSON(http.StatusOK, out)
}

func (h *SearchHandler) streaming(c echo.Context, intent search.Intent, started time.Time) error {
	res, err := h.Dispatcher.Stream(c.Request().Context(), intent)
	if err != nil {
		return h.dispatchError(c, intent, started, err)
	}
	if res.Failure != nil {
		h.Metrics.requests.WithLabelValues(intent.Mode, "empty").Inc()
		return c.JSON(http.StatusOK, res.Failure)
	}

	resp := c.Response()
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		// Must be checked before the response is committed, otherwise the
		// error status can no longer be delivered.
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	for event := range res.Events {
		data, err := json.Marshal(event)
		if err != nil {
			h.Logger.Printf("encode stream event: %v", err)
			continue
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			// client went away; producer stops via request context
			h.Logger.Printf("stream write aborted: %v", err)
			return nil
		}
		flusher.Flush()
	}
	h.Metrics.requests.WithLabelValues(intent.Mode, "ok").Inc()
	return nil
}

// dispatchError maps backend failures onto the response contract:
// transport errors keep the upstream status, missing configuration is a
// 500, anything else degrades to a 200 failure outcome so clients always
// get the envelope they can render.
func (h *SearchHandler) dispatchError(c echo.Context, intent search.Intent, started time.Time, err error) error {
	var vte *vertex.TransportError
	if errors.As(err, &vte) {
		h.Metrics.requests.WithLabelValues(intent.Mode, "backend_error").Inc()
		return echo.NewHTTPError(vte.StatusCode, fmt.Sprintf("Vertex AI Search API failed: %s", vte.Body))
	}
	var gte *gemini.TransportError
	if errors.As(err, &gte) {
		h.Metrics.requests.WithLabelValues(intent.Mode, "backend_error").Inc()
		return echo.NewHTTPError(gte.StatusCode, fmt.Sprintf("Gemini API failed: %s", gte.Body))
	}
	var re *auth.RefreshError
	if errors.Is(err, gemini.ErrMissingAPIKey) || errors.As(err, &re) {
		h.Metrics.requests.WithLabelValues(intent.Mode, "config_error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.Metrics.requests.WithLabelValues(intent.Mode, "error").Inc()
	h.Logger.Printf("unexpected search error: %v", err)
	elapsed := math.Round(time.Since(started).Seconds()*100) / 100
	return c.JSON(http.StatusOK, &search.Outcome{
		Success:      false,
		Mode:         intent.Mode,
		Query:        intent.Query,
		Error:        err.Error(),
		ResponseTime: elapsed,
	})
}
