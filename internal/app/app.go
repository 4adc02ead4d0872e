package app

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"devicegate/internal/config"
	"devicegate/internal/handlers"
	"devicegate/internal/repositories"
	"devicegate/internal/routes"
	"devicegate/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === Store ===
	storageRepo := repositories.NewStorageRepository(cfg.Storage.File)

	// === Services ===
	verificationService := services.NewVerificationService(storageRepo)

	var tg *services.TelegramService
	if cfg.Telegram.BotToken != "" {
		var err error
		tg, err = services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("[tg] init failed, integration disabled: %v", err)
			tg = nil
		}
	} else {
		log.Printf("[tg] BOT_TOKEN is empty, integration disabled")
	}

	// === Handlers ===
	verifyHandler := handlers.NewVerifyHandler(verificationService)
	var sender handlers.TelegramSender
	if tg != nil {
		sender = tg
	}
	webhookHandler := handlers.NewWebhookHandler(sender, cfg)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, verifyHandler, webhookHandler)

	// Вебхук регистрируем на старте; неудача не валит процесс,
	// бот просто не будет получать апдейты.
	if tg != nil {
		webhookURL := fmt.Sprintf("https://%s/webhook", cfg.Domains.Backend)
		if err := tg.SetupWebhook(webhookURL); err != nil {
			log.Printf("[tg] webhook setup failed: %v", err)
		}
	}

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
