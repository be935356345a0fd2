package model

import "time"

// BoardEntry is one stored column: a storage key and its serialized task list.
type BoardEntry struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
