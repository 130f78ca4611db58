package models

import "time"

// PendingImport marks an import whose two writes (customer, email) have not both completed.
type PendingImport struct {
	EmailID    string    `gorm:"column:email_id;type:varchar(50);primaryKey"`
	CustomerID string    `gorm:"column:customer_id;type:varchar(50)"`
	CreatedBy  string    `gorm:"column:created_by;type:varchar(255)"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (PendingImport) TableName() string {
	return "pending_imports"
}
