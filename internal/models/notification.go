package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

type Notification struct {
	ID         string                    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Type       enum.NotificationType     `gorm:"column:type;type:varchar(50);index;not null" json:"type"`
	Title      string                    `gorm:"column:title;type:varchar(500)" json:"title"`
	Message    string                    `gorm:"column:message;type:text" json:"message"`
	CustomerID string                    `gorm:"column:customer_id;type:varchar(50);index" json:"customerId,omitempty"`
	QuoteID    string                    `gorm:"column:quote_id;type:varchar(50)" json:"quoteId,omitempty"`
	Read       bool                      `gorm:"column:read;default:false;index" json:"read"`
	ReadAt     *time.Time                `gorm:"column:read_at;type:timestamp" json:"readAt,omitempty"`
	Priority   enum.NotificationPriority `gorm:"column:priority;type:varchar(20)" json:"priority"`
	ActionURL  string                    `gorm:"column:action_url;type:varchar(1000)" json:"actionUrl,omitempty"`
	Details    JSONMap                   `gorm:"column:details;type:jsonb" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp;index" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = utils.GenerateNanoIDWithPrefix("notif", 16)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = utils.Now()
	}
	return nil
}
