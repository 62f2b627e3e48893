package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/payments")
	{
		group.POST("", h.CreatePayment)
		group.GET("/verify", h.Verify)
		group.POST("/webhook", h.Webhook)
	}
}
