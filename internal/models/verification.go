package models

import (
	"encoding/json"
	"time"
)

// Verification — одна запись на пару (userId, bot). Метаданные браузера
// храним как прислал клиент, без нормализации.
type Verification struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId"`
	Bot                 string    `json:"bot"`
	BotHash             string    `json:"botHash"`
	DeviceID            string    `json:"deviceId"`
	UserAgent           *string   `json:"userAgent,omitempty"`
	Platform            *string   `json:"platform,omitempty"`
	Language            *string   `json:"language,omitempty"`
	Timezone            *string   `json:"timezone,omitempty"`
	HardwareConcurrency *int      `json:"hardwareConcurrency,omitempty"`
	DeviceMemory        *float64  `json:"deviceMemory,omitempty"`
	ScreenResolution    *string   `json:"screenResolution,omitempty"`
	IsVerified          bool      `json:"isVerified"`
	Attempts            int       `json:"attempts"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// StorageData — весь документ хранилища целиком. Список users пока
// не используется, но остаётся в документе.
type StorageData struct {
	Users         []json.RawMessage `json:"users"`
	Verifications []Verification    `json:"verifications"`
}

type VerificationStats struct {
	TotalVerifications int `json:"total_verifications"`
	VerifiedCount      int `json:"verified_count"`
	UniqueUsers        int `json:"unique_users"`
	UniqueDevices      int `json:"unique_devices"`
}
