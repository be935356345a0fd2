package repository

import (
	"context"

	"gorm.io/gorm"

	"progressboard/internal/model"
)

// EntryRepository stores board columns as rows of the board_entries table.
type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Get returns the stored value for key, or nil when no row exists
func (r *EntryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	var entries []model.BoardEntry
	result := r.db.WithContext(ctx).Where("key = ?", key).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return []byte(entries[0].Value), nil
}

// Set inserts or replaces the value for key
func (r *EntryRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Exec(
		"INSERT INTO board_entries (key, value, updated_at) VALUES (?, ?, NOW()) "+
			"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at",
		key, string(value),
	).Error
}
