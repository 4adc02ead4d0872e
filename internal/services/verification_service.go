package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"devicegate/internal/models"
	"devicegate/internal/repositories"
)

var ErrDeviceConflict = errors.New("device already verified with another account")

// ValidationError — в запросе нет обязательного поля.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing field: " + e.Field
}

type VerifyRequest struct {
	UserID              string
	Bot                 string
	BotHash             string
	DeviceID            string
	UserAgent           *string
	Platform            *string
	Language            *string
	Timezone            *string
	HardwareConcurrency *int
	DeviceMemory        *float64
	ScreenResolution    *string
}

type VerifyResult struct {
	AlreadyVerified bool
	Verification    models.Verification
}

type VerificationService struct {
	Repo *repositories.StorageRepository
}

func NewVerificationService(repo *repositories.StorageRepository) *VerificationService {
	return &VerificationService{Repo: repo}
}

// Verify — создаёт или обновляет запись верификации. Весь цикл
// чтение-решение-запись идёт одной критической секцией хранилища.
//
// Порядок проверок фиксированный: уже верифицирован -> конфликт
// устройства -> обновление/создание. Конфликт проверяется даже когда
// у пользователя есть своя неверифицированная запись.
func (s *VerificationService) Verify(req VerifyRequest) (*VerifyResult, error) {
	for _, f := range []struct{ name, value string }{
		{"user_id", req.UserID},
		{"bot", req.Bot},
		{"bot_hash", req.BotHash},
		{"device_id", req.DeviceID},
	} {
		if f.value == "" {
			return nil, &ValidationError{Field: f.name}
		}
	}

	var result VerifyResult
	err := s.Repo.Update(func(data *models.StorageData) (bool, error) {
		var existing *models.Verification
		for i := range data.Verifications {
			v := &data.Verifications[i]
			if v.UserID == req.UserID && v.Bot == req.Bot {
				existing = v
				break
			}
		}

		if existing != nil && existing.IsVerified {
			result = VerifyResult{AlreadyVerified: true, Verification: *existing}
			return false, nil
		}

		for i := range data.Verifications {
			v := &data.Verifications[i]
			if v.DeviceID == req.DeviceID && v.Bot == req.Bot && v.UserID != req.UserID {
				return false, ErrDeviceConflict
			}
		}

		now := time.Now().UTC()
		if existing != nil {
			existing.UserAgent = req.UserAgent
			existing.Platform = req.Platform
			existing.Language = req.Language
			existing.Timezone = req.Timezone
			existing.HardwareConcurrency = req.HardwareConcurrency
			existing.DeviceMemory = req.DeviceMemory
			existing.ScreenResolution = req.ScreenResolution
			existing.IsVerified = true
			existing.Attempts++
			existing.UpdatedAt = now
			result = VerifyResult{Verification: *existing}
			return true, nil
		}

		v := models.Verification{
			ID:                  uuid.NewString(),
			UserID:              req.UserID,
			Bot:                 req.Bot,
			BotHash:             req.BotHash,
			DeviceID:            req.DeviceID,
			UserAgent:           req.UserAgent,
			Platform:            req.Platform,
			Language:            req.Language,
			Timezone:            req.Timezone,
			HardwareConcurrency: req.HardwareConcurrency,
			DeviceMemory:        req.DeviceMemory,
			ScreenResolution:    req.ScreenResolution,
			IsVerified:          true,
			Attempts:            1,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		data.Verifications = append(data.Verifications, v)
		result = VerifyResult{Verification: v}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *VerificationService) List() ([]models.Verification, error) {
	data, err := s.Repo.Load()
	if err != nil {
		return nil, err
	}
	return data.Verifications, nil
}

// Stats — полный проход по записям на каждый вызов; уникальность
// считается по всем записям, не только верифицированным.
func (s *VerificationService) Stats() (*models.VerificationStats, error) {
	data, err := s.Repo.Load()
	if err != nil {
		return nil, err
	}

	users := make(map[string]struct{})
	devices := make(map[string]struct{})
	stats := &models.VerificationStats{TotalVerifications: len(data.Verifications)}
	for _, v := range data.Verifications {
		if v.IsVerified {
			stats.VerifiedCount++
		}
		users[v.UserID] = struct{}{}
		devices[v.DeviceID] = struct{}{}
	}
	stats.UniqueUsers = len(users)
	stats.UniqueDevices = len(devices)
	return stats, nil
}
