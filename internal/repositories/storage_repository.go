package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"devicegate/internal/models"
)

// ErrCorruptStorage — файл есть, но распарсить его нельзя. Это не «первый
// запуск», молча подменять документ пустым в этом случае нельзя.
var ErrCorruptStorage = errors.New("storage file corrupt")

type StorageRepository struct {
	path string
	mu   sync.Mutex
}

func NewStorageRepository(path string) *StorageRepository {
	return &StorageRepository{path: path}
}

func emptyData() *models.StorageData {
	return &models.StorageData{
		Users:         []json.RawMessage{},
		Verifications: []models.Verification{},
	}
}

// Load — читает документ целиком. Отсутствующий файл считается первым
// запуском: пустой документ создаётся и сразу сохраняется.
func (r *StorageRepository) Load() (*models.StorageData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *StorageRepository) load() (*models.StorageData, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		data := emptyData()
		if err := r.save(data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage read: %w", err)
	}

	var data models.StorageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStorage, err)
	}
	if data.Users == nil {
		data.Users = []json.RawMessage{}
	}
	if data.Verifications == nil {
		data.Verifications = []models.Verification{}
	}
	return &data, nil
}

func (r *StorageRepository) Save(data *models.StorageData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(data)
}

// save — через временный файл и rename, чтобы не оставить на диске
// полузаписанный документ.
func (r *StorageRepository) save(data *models.StorageData) error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage mkdir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("storage marshal: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("storage write: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("storage rename: %w", err)
	}
	return nil
}

// Update — цикл load-modify-save под мьютексом: параллельные верификации
// не затирают друг друга. fn возвращает признак изменения документа;
// без изменений записи на диск не будет. Ошибка fn отменяет сохранение.
func (r *StorageRepository) Update(fn func(*models.StorageData) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}
	changed, err := fn(data)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return r.save(data)
}
