package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicegate/internal/models"
	"devicegate/internal/repositories"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) *VerificationService {
	t.Helper()
	repo := repositories.NewStorageRepository(filepath.Join(t.TempDir(), "storage.json"))
	return NewVerificationService(repo)
}

func validRequest(userID, deviceID string) VerifyRequest {
	hc := 8
	return VerifyRequest{
		UserID:              userID,
		Bot:                 "binarow_bot",
		BotHash:             "hash-" + userID,
		DeviceID:            deviceID,
		UserAgent:           strPtr("Mozilla/5.0"),
		Platform:            strPtr("Linux x86_64"),
		Language:            strPtr("en-US"),
		Timezone:            strPtr("Europe/Berlin"),
		HardwareConcurrency: &hc,
		ScreenResolution:    strPtr("1920x1080"),
	}
}

func TestVerifyMissingRequiredField(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		field  string
		mutate func(*VerifyRequest)
	}{
		{"user_id", func(r *VerifyRequest) { r.UserID = "" }},
		{"bot", func(r *VerifyRequest) { r.Bot = "" }},
		{"bot_hash", func(r *VerifyRequest) { r.BotHash = "" }},
		{"device_id", func(r *VerifyRequest) { r.DeviceID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			req := validRequest("u1", "d1")
			tc.mutate(&req)

			_, err := svc.Verify(req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestVerifyCreatesRecord(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)
	assert.False(t, result.AlreadyVerified)

	v := result.Verification
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "u1", v.UserID)
	assert.Equal(t, "binarow_bot", v.Bot)
	assert.Equal(t, "hash-u1", v.BotHash)
	assert.Equal(t, "d1", v.DeviceID)
	assert.True(t, v.IsVerified)
	assert.Equal(t, 1, v.Attempts)
	assert.Equal(t, v.CreatedAt, v.UpdatedAt)
	require.NotNil(t, v.UserAgent)
	assert.Equal(t, "Mozilla/5.0", *v.UserAgent)

	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, v.ID, stored[0].ID)
}

func TestVerifyAlreadyVerified(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)

	// Вторая отправка того же пользователя: без мутаций и без записи
	req := validRequest("u1", "d1")
	req.UserAgent = strPtr("Other/1.0")
	second, err := svc.Verify(req)
	require.NoError(t, err)
	assert.True(t, second.AlreadyVerified)
	assert.Equal(t, 1, second.Verification.Attempts)

	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].Attempts)
	assert.Equal(t, first.Verification.ID, stored[0].ID)
	require.NotNil(t, stored[0].UserAgent)
	assert.Equal(t, "Mozilla/5.0", *stored[0].UserAgent)
}

func TestVerifyUpdatesUnverifiedRecord(t *testing.T) {
	repo := repositories.NewStorageRepository(filepath.Join(t.TempDir(), "storage.json"))
	svc := NewVerificationService(repo)

	createdAt := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	seed := models.Verification{
		ID:         "seed-id",
		UserID:     "u1",
		Bot:        "binarow_bot",
		BotHash:    "old-hash",
		DeviceID:   "d1",
		UserAgent:  strPtr("Old/1.0"),
		IsVerified: false,
		Attempts:   2,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	data, err := repo.Load()
	require.NoError(t, err)
	data.Verifications = append(data.Verifications, seed)
	require.NoError(t, repo.Save(data))

	result, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)
	assert.False(t, result.AlreadyVerified)

	v := result.Verification
	assert.Equal(t, "seed-id", v.ID)
	assert.True(t, v.IsVerified)
	assert.Equal(t, 3, v.Attempts)
	assert.Equal(t, createdAt, v.CreatedAt)
	assert.True(t, v.UpdatedAt.After(createdAt))
	require.NotNil(t, v.UserAgent)
	assert.Equal(t, "Mozilla/5.0", *v.UserAgent)

	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Attempts)
}

func TestVerifyDeviceConflict(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)

	_, err = svc.Verify(validRequest("u2", "d1"))
	assert.ErrorIs(t, err, ErrDeviceConflict)

	// конфликт не должен ничего менять в хранилище
	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "u1", stored[0].UserID)
}

func TestVerifySameDeviceOtherBotAllowed(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)

	req := validRequest("u2", "d1")
	req.Bot = "other_bot"
	result, err := svc.Verify(req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Verification.Attempts)
}

func TestVerifyConflictCheckedBeforeUpdate(t *testing.T) {
	repo := repositories.NewStorageRepository(filepath.Join(t.TempDir(), "storage.json"))
	svc := NewVerificationService(repo)

	createdAt := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	data, err := repo.Load()
	require.NoError(t, err)
	data.Verifications = append(data.Verifications,
		models.Verification{
			ID: "a", UserID: "u1", Bot: "binarow_bot", BotHash: "h", DeviceID: "d-old",
			IsVerified: false, Attempts: 1, CreatedAt: createdAt, UpdatedAt: createdAt,
		},
		models.Verification{
			ID: "b", UserID: "u2", Bot: "binarow_bot", BotHash: "h", DeviceID: "d1",
			IsVerified: true, Attempts: 1, CreatedAt: createdAt, UpdatedAt: createdAt,
		},
	)
	require.NoError(t, repo.Save(data))

	// у u1 есть своя неверифицированная запись, но устройство d1 занято u2
	_, err = svc.Verify(validRequest("u1", "d1"))
	assert.ErrorIs(t, err, ErrDeviceConflict)

	stored, err := svc.List()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.False(t, stored[0].IsVerified)
	assert.Equal(t, 1, stored[0].Attempts)
}

func TestVerifyCorruptStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	svc := NewVerificationService(repositories.NewStorageRepository(path))

	_, err := svc.Verify(validRequest("u1", "d1"))
	assert.ErrorIs(t, err, repositories.ErrCorruptStorage)

	_, err = svc.List()
	assert.ErrorIs(t, err, repositories.ErrCorruptStorage)

	_, err = svc.Stats()
	assert.ErrorIs(t, err, repositories.ErrCorruptStorage)
}

func TestStats(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(validRequest("u1", "d1"))
	require.NoError(t, err)
	_, err = svc.Verify(validRequest("u2", "d2"))
	require.NoError(t, err)

	// u2 в другом боте с тем же устройством + неверифицированная запись u3
	req := validRequest("u2", "d2")
	req.Bot = "other_bot"
	_, err = svc.Verify(req)
	require.NoError(t, err)

	err = svc.Repo.Update(func(d *models.StorageData) (bool, error) {
		d.Verifications = append(d.Verifications, models.Verification{
			ID: "x", UserID: "u3", Bot: "binarow_bot", BotHash: "h", DeviceID: "d3",
			IsVerified: false, Attempts: 1,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		})
		return true, nil
	})
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalVerifications)
	assert.Equal(t, 3, stats.VerifiedCount)
	assert.Equal(t, 3, stats.UniqueUsers)
	assert.Equal(t, 3, stats.UniqueDevices)
}

func TestStatsEmptyStore(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, &models.VerificationStats{}, stats)
}
