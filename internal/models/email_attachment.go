package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/utils"
)

// EmailAttachment is the metadata of a stored attachment; content lives in object storage.
type EmailAttachment struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	EmailID     string `gorm:"column:email_id;type:varchar(50);index;not null" json:"emailId"`
	Filename    string `gorm:"column:filename;type:varchar(500)" json:"filename"`
	ContentType string `gorm:"column:content_type;type:varchar(255)" json:"contentType"`
	ContentID   string `gorm:"column:content_id;type:varchar(255)" json:"contentId,omitempty"`
	Size        int    `gorm:"column:size;default:0" json:"size"`
	IsInline    bool   `gorm:"column:is_inline;default:false" json:"isInline"`

	StorageBucket string `gorm:"column:storage_bucket;type:varchar(255)" json:"-"`
	StorageKey    string `gorm:"column:storage_key;type:varchar(1000)" json:"-"`
	URL           string `gorm:"column:url;type:varchar(2000)" json:"url,omitempty"`
	ContentHash   string `gorm:"column:content_hash;type:varchar(64);index" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (EmailAttachment) TableName() string {
	return "email_attachments"
}

func (e *EmailAttachment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("file", 12)
	}
	e.CreatedAt = utils.Now()
	return nil
}
