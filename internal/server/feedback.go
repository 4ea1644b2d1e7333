package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Nukaze/vertex-search-rag/internal/feedback"
)

// Archiver persists one feedback record.
type Archiver interface {
	Archive(ctx context.Context, rec feedback.Record) (*feedback.Receipt, error)
}

// FeedbackHandler serves POST /api/feedback.
type FeedbackHandler struct {
	Archiver Archiver
	Logger   *log.Logger
}

func (h *FeedbackHandler) Register(g *echo.Group) {
	g.POST("/feedback", h.submit)
}

// feedbackResponse is the submission acknowledgement.
type feedbackResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID string `json:"feedbackId,omitempty"`
	StoredAt   string `json:"storedAt,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *FeedbackHandler) submit(c echo.Context) error {
	var rec feedback.Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := rec.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.Archiver.Archive(c.Request().Context(), rec)
	if err != nil {
		// storage details stay server-side
		h.Logger.Printf("archive failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "ขออภัย ไม่สามารถบันทึกคำติชมได้ กรุณาลองใหม่อีกครั้ง")
	}

	return c.JSON(http.StatusOK, feedbackResponse{
		Success:    true,
		Message:    "ขอบคุณสำหรับคำติชมครับ! เราจะนำไปปรับปรุง AI ให้ดีขึ้น",
		FeedbackID: receipt.FeedbackID,
		StoredAt:   receipt.StoredAt,
	})
}
