// Package settings provides database operations for reader settings and the
// session record, stored as key/value rows.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	s, err := repo.GetReaderSettings(defaults)
package settings

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/zenreader/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	setting := entities.Setting{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// GetReaderSettings returns the stored reader settings. Missing or
// unparseable values are taken from defaults.
func (r *Repository) GetReaderSettings(defaults entities.ReaderSettings) (entities.ReaderSettings, error) {
	out := defaults

	var rows []entities.Setting
	err := r.db.Where("key IN ?", []string{entities.SettingKeyReaderMode, entities.SettingKeyReaderFontSize}).
		Find(&rows).Error
	if err != nil {
		return defaults, err
	}

	for _, row := range rows {
		switch row.Key {
		case entities.SettingKeyReaderMode:
			if mode, err := entities.ParseReaderMode(row.Value); err == nil {
				out.Mode = mode
			}
		case entities.SettingKeyReaderFontSize:
			if size, err := strconv.Atoi(row.Value); err == nil {
				out.FontSize = entities.ClampFontSize(size)
			}
		}
	}
	return out, nil
}

// SaveReaderSettings writes both reader settings atomically.
func (r *Repository) SaveReaderSettings(s entities.ReaderSettings) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.SetSetting(entities.SettingKeyReaderMode, string(s.Mode)); err != nil {
			return err
		}
		return repo.SetSetting(entities.SettingKeyReaderFontSize, strconv.Itoa(s.FontSize))
	})
}

// GetLastBookID returns the last opened book, or "" when none is recorded.
func (r *Repository) GetLastBookID() (string, error) {
	setting, err := r.GetSetting(entities.SettingKeyLastBookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetLastBookID records the last opened book; "" clears it.
func (r *Repository) SetLastBookID(bookID string) error {
	if bookID == "" {
		return r.DeleteSetting(entities.SettingKeyLastBookID)
	}
	return r.SetSetting(entities.SettingKeyLastBookID, bookID)
}
