package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mabuhotel/booking-backend/internal/pkg/response"
	"github.com/mabuhotel/booking-backend/internal/reconcile"
)

// ReportRequest defines query parameters for an on-demand reconciliation run.
type ReportRequest struct {
	WindowDays          int    `form:"window_days" binding:"omitempty,min=1,max=90"`
	PendingTimeoutHours int    `form:"pending_timeout_hours" binding:"omitempty,min=1"`
	Format              string `form:"format" binding:"omitempty,oneof=json text"`
}

type Handler struct {
	runner *reconcile.Runner
}

func NewHandler(runner *reconcile.Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), reconcile.RunOptions{
		WindowDays:          req.WindowDays,
		PendingTimeoutHours: req.PendingTimeoutHours,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Format == "text" {
		c.String(http.StatusOK, reconcile.FormatReport(result.Result))
		return
	}
	c.JSON(http.StatusOK, result)
}

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/reconciliation")
	{
		group.GET("/report", h.Report)
	}
}
