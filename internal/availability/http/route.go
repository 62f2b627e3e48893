package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/availability")
	{
		group.POST("/check", h.Check)
		group.GET("/unavailable-days", h.UnavailableDays)
	}
}
