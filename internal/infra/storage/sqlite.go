package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stock_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists the instrument catalog and key-value settings in a local
// SQLite database. The catalog carries each instrument's last price across
// restarts so the market resumes instead of resetting to seed prices.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the catalog database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure-Go SQLite, no cgo.
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.InstrumentInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// ======================================================================================
// Instrument Catalog Operations
// ======================================================================================

// UpsertInstrument creates or updates a catalog row.
func (s *Storage) UpsertInstrument(info *domain.InstrumentInfo) error {
	return s.db.Save(info).Error
}

// GetInstrument retrieves a catalog row by symbol.
func (s *Storage) GetInstrument(symbol string) (*domain.InstrumentInfo, error) {
	var info domain.InstrumentInfo
	err := s.db.First(&info, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &info, err
}

// GetAllInstruments retrieves the full catalog.
func (s *Storage) GetAllInstruments() ([]domain.InstrumentInfo, error) {
	var infos []domain.InstrumentInfo
	err := s.db.Find(&infos).Error
	return infos, err
}

// DeleteInstrument removes a catalog row.
func (s *Storage) DeleteInstrument(symbol string) error {
	return s.db.Where("symbol = ?", symbol).Delete(&domain.InstrumentInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a key-value setting.
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all settings as a map.
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
