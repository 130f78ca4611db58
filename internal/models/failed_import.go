package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

// FailedImport records an email that could not be turned into a customer automatically.
type FailedImport struct {
	ID            string             `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	EmailID       string             `gorm:"column:email_id;type:varchar(50);index" json:"emailId"`
	MessageID     string             `gorm:"column:message_id;type:varchar(500)" json:"messageId,omitempty"`
	FromAddress   string             `gorm:"column:from_address;type:varchar(255)" json:"from"`
	Subject       string             `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	EmailDate     time.Time          `gorm:"column:email_date;type:timestamp" json:"date"`
	Folder        enum.EmailFolder   `gorm:"column:folder;type:varchar(50)" json:"folder"`
	Reason        enum.FailureReason `gorm:"column:reason;type:varchar(50);index" json:"reason"`
	ReasonDetail  string             `gorm:"column:reason_detail;type:text" json:"reasonDetail,omitempty"`
	ExtractedData JSONMap            `gorm:"column:extracted_data;type:jsonb" json:"extractedData,omitempty"`
	BodyText      string             `gorm:"column:body_text;type:text" json:"text"`
	BodyHTML      string             `gorm:"column:body_html;type:text" json:"html"`

	Resolved      bool       `gorm:"column:resolved;default:false;index" json:"resolved"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at;type:timestamp" json:"resolvedAt,omitempty"`
	ResolvedBy    string     `gorm:"column:resolved_by;type:varchar(255)" json:"resolvedBy,omitempty"`
	NewCustomerID string     `gorm:"column:new_customer_id;type:varchar(50)" json:"newCustomerId,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (FailedImport) TableName() string {
	return "failed_imports"
}

func (f *FailedImport) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("fail", 16)
	}
	f.CreatedAt = utils.Now()
	return nil
}
