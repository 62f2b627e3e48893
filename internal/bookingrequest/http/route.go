package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, rateLimiter gin.HandlerFunc) {
	group := g.Group("/booking-requests")
	{
		group.POST("/initiate", rateLimiter, h.Initiate)
		group.GET("/:id", h.Get)
	}
}
