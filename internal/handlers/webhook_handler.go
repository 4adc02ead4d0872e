package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"devicegate/internal/config"
)

// TelegramSender — исходящая часть интеграции; в тестах подменяется заглушкой.
type TelegramSender interface {
	SendVerificationButton(chatID int64, text, buttonText, link string) error
	VerificationLink(frontendDomain, botUsername string, userID int64) string
}

const (
	welcomeText      = "🔐 Welcome to Device Verification Bot!\n\nClick the button below to verify your device:"
	verifyButtonText = "🚀 Verify Device"
)

type WebhookHandler struct {
	TG  TelegramSender // может быть nil, если токен не задан
	Cfg *config.Config
}

func NewWebhookHandler(tg TelegramSender, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{TG: tg, Cfg: cfg}
}

// Webhook — входящие апдейты Telegram. Реагируем только на /start, всё
// остальное молча подтверждаем: если не ответить 200, платформа будет
// доставлять апдейт снова и снова.
func (h *WebhookHandler) Webhook(c *gin.Context) {
	if h.TG == nil {
		log.Printf("[tg:webhook] integration disabled (no token), ack and skip")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil || up.Message == nil {
		if err != nil {
			log.Printf("[tg:webhook] bind json error: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	text := strings.TrimSpace(up.Message.Text)
	chatID := up.Message.Chat.ID
	log.Printf("[tg:webhook] incoming: chatID=%d text=%q", chatID, text)

	if text == "/start" && up.Message.From != nil {
		link := h.TG.VerificationLink(h.Cfg.Domains.Frontend, h.Cfg.Telegram.BotUsername, up.Message.From.ID)
		if err := h.TG.SendVerificationButton(chatID, welcomeText, verifyButtonText, link); err != nil {
			log.Printf("[tg:webhook] send failed: chatID=%d err=%v", chatID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
