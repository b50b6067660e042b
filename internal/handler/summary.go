// internal/handler/summary.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pennywise/internal/report"
)

type SummaryHandler struct {
	report *report.Service
}

func NewSummaryHandler(reportSvc *report.Service) *SummaryHandler {
	return &SummaryHandler{report: reportSvc}
}

// Get returns the dashboard numbers for the requested month: day, week and
// month totals plus spend grouped by category.
func (h *SummaryHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, to, err := report.MonthRange(c.Query("month"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.report.Overview(c.Request.Context(), userID, from, to)
	if err != nil {
		slog.Error("summary failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
