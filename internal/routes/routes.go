package routes

import (
	"github.com/gin-gonic/gin"

	"devicegate/internal/handlers"
)

func SetupRoutes(
	r *gin.Engine,
	verifyHandler *handlers.VerifyHandler,
	webhookHandler *handlers.WebhookHandler,
) *gin.Engine {

	// ---- public
	r.POST("/webhook", webhookHandler.Webhook)
	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	{
		api.POST("/verify", verifyHandler.Verify)
		api.GET("/verifications", verifyHandler.List)
		api.GET("/stats", verifyHandler.Stats)
	}

	return r
}
