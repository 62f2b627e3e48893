package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mabuhotel/booking-backend/internal/booking"
	"github.com/mabuhotel/booking-backend/internal/pkg/request"
	"github.com/mabuhotel/booking-backend/internal/pkg/response"
	"github.com/mabuhotel/booking-backend/internal/timepolicy"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(b))
}

func (h *Handler) Extend(c *gin.Context) {
	var body ExtendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	newDay, err := timepolicy.ParseDayKey(body.NewDepartureDay)
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.Extend(c.Request.Context(), booking.ExtendInput{
		BookingID:       body.BookingID,
		NewDepartureDay: newDay,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(b))
}
