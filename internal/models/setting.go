package models

import "time"

// Setting is a JSON value shared by every replica.
type Setting struct {
	Key       string    `gorm:"column:key;type:varchar(100);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Setting) TableName() string {
	return "settings"
}
