package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mabuhotel/booking-backend/internal/availability"
	"github.com/mabuhotel/booking-backend/internal/pkg/response"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Check(c *gin.Context) {
	var body CheckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	arrival, err := timepolicy.ParseDayKey(body.ArrivalDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	departure, err := timepolicy.ParseDayKey(body.DepartureDay)
	if err != nil {
		response.Error(c, err)
		return
	}

	unit, err := h.service.FindAvailableUnit(c.Request.Context(), body.RoomTypeID, arrival, departure)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckResponse{Available: unit != nil})
}

func (h *Handler) UnavailableDays(c *gin.Context) {
	var req UnavailableDaysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	days, err := h.service.ListUnavailableDays(c.Request.Context(), req.RoomTypeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}

	c.JSON(http.StatusOK, UnavailableDaysResponse{Days: out})
}
