package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService — исходящая половина интеграции: кнопка верификации,
// регистрация вебхука и команды /start.
type TelegramService struct {
	bot   *tgbotapi.BotAPI
	token string
}

// Inline-клавиатура с web_app кнопкой. Библиотека v5 про web_app ещё не
// знает, поэтому reply_markup собираем сами — BaseChat маршалит его как есть.
type tgWebAppInfo struct {
	URL string `json:"url"`
}
type tgInlineButton struct {
	Text   string       `json:"text"`
	WebApp tgWebAppInfo `json:"web_app"`
}
type tgInlineKeyboard struct {
	InlineKeyboard [][]tgInlineButton `json:"inline_keyboard"`
}

func NewTelegramService(botToken string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	bot.Client = &http.Client{Timeout: 10 * time.Second}
	return &TelegramService{bot: bot, token: botToken}, nil
}

// SendVerificationButton — sendMessage с одной web_app кнопкой.
// Одна повторная попытка на транспортную ошибку.
func (t *TelegramService) SendVerificationButton(chatID int64, text, buttonText, link string) error {
	if t == nil || chatID == 0 {
		log.Printf("[tg][skip] service or chatID empty (chatID=%d)", chatID)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgInlineKeyboard{
		InlineKeyboard: [][]tgInlineButton{{
			{Text: buttonText, WebApp: tgWebAppInfo{URL: link}},
		}},
	}

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if _, err = t.bot.Send(msg); err == nil {
			log.Printf("[tg][send] ok: chatID=%d", chatID)
			return nil
		}
		log.Printf("[tg][send][err] chatID=%d attempt=%d: %v", chatID, attempt, err)
	}
	return fmt.Errorf("telegram sendMessage failed: %w", err)
}

// SetupWebhook — setWebhook и регистрация команды /start на старте процесса.
func (t *TelegramService) SetupWebhook(webhookURL string) error {
	if t == nil || webhookURL == "" {
		return nil
	}

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("telegram webhook url: %w", err)
	}
	wh.AllowedUpdates = []string{"message"}
	if _, err := t.bot.Request(wh); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	log.Printf("[tg][setWebhook] registered: %s", webhookURL)

	commands := tgbotapi.NewSetMyCommands(tgbotapi.BotCommand{
		Command:     "start",
		Description: "Start device verification process",
	})
	if _, err := t.bot.Request(commands); err != nil {
		return fmt.Errorf("telegram setMyCommands: %w", err)
	}
	return nil
}

// VerificationLink — deep link на страницу верификации фронтенда.
func (t *TelegramService) VerificationLink(frontendDomain, botUsername string, userID int64) string {
	q := url.Values{}
	q.Set("bot", botUsername)
	q.Set("botHash", t.userHash(userID))
	q.Set("user_id", strconv.FormatInt(userID, 10))
	return "https://" + frontendDomain + "/verification?" + q.Encode()
}

// userHash — детерминированный хэш пользователя для ссылки: один и тот же
// /start всегда даёт одну и ту же ссылку. Ключ — токен бота.
func (t *TelegramService) userHash(userID int64) string {
	mac := hmac.New(sha256.New, []byte(t.token))
	fmt.Fprintf(mac, "%d", userID)
	return hex.EncodeToString(mac.Sum(nil))
}
