package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

var ErrImportedWithoutCustomer = errors.New("email marked imported without a linked customer id")

// Email is a message pulled from the mailbox and normalised for the CRM inbox.
type Email struct {
	ID          string           `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	IdentityKey string           `gorm:"column:identity_key;type:varchar(500);uniqueIndex;not null" json:"-"`
	MailboxID   string           `gorm:"column:mailbox_id;type:varchar(100);index;not null" json:"mailboxId"`
	Folder      enum.EmailFolder `gorm:"column:folder;type:varchar(50);index;not null" json:"folder"`
	ImapUID     uint32           `gorm:"column:imap_uid;index" json:"uid"`
	MessageID   string           `gorm:"column:message_id;type:varchar(500);index" json:"messageId"`
	ThreadID    string           `gorm:"column:thread_id;type:varchar(500);index" json:"threadId"`
	InReplyTo   string           `gorm:"column:in_reply_to;type:varchar(500)" json:"inReplyTo,omitempty"`

	Direction   enum.EmailDirection `gorm:"column:direction;type:varchar(20)" json:"direction"`
	Source      enum.EmailSource    `gorm:"column:source;type:varchar(50);index" json:"source"`
	FromAddress string              `gorm:"column:from_address;type:varchar(255);index" json:"from"`
	FromName    string              `gorm:"column:from_name;type:varchar(255)" json:"fromName"`
	ToAddresses pq.StringArray      `gorm:"column:to_addresses;type:text[]" json:"to"`
	ToName      string              `gorm:"column:to_name;type:varchar(255)" json:"toName,omitempty"`
	CcAddresses pq.StringArray      `gorm:"column:cc_addresses;type:text[]" json:"cc,omitempty"`
	Subject     string              `gorm:"column:subject;type:varchar(1000)" json:"subject"`

	BodyText string `gorm:"column:body_text;type:text" json:"text"`
	BodyHTML string `gorm:"column:body_html;type:text" json:"html"`

	Date          time.Time `gorm:"column:date;type:timestamp;index" json:"date"`
	IsRead        bool      `gorm:"column:is_read;default:false;index" json:"isRead"`
	IsStarred     bool      `gorm:"column:is_starred;default:false" json:"isStarred"`
	HasAttachment bool      `gorm:"column:has_attachment;default:false" json:"hasAttachment"`

	IsImported         bool       `gorm:"column:is_imported;default:false;index" json:"isImported"`
	ImportedCustomerID string     `gorm:"column:imported_customer_id;type:varchar(50);index" json:"importedCustomerId,omitempty"`
	ImportedAt         *time.Time `gorm:"column:imported_at;type:timestamp" json:"importedAt,omitempty"`

	Classification       enum.EmailClassification `gorm:"column:classification;type:varchar(30);index" json:"classification,omitempty"`
	ClassificationReason string                   `gorm:"column:classification_reason;type:varchar(255)" json:"classificationReason,omitempty"`

	RawHeaders JSONMap `gorm:"column:raw_headers;type:jsonb" json:"-"`

	Attachments []EmailAttachment `gorm:"foreignKey:EmailID" json:"attachments,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Email) TableName() string {
	return "emails"
}

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("email", 24)
	}
	e.CreatedAt = utils.Now()
	return e.validateImport()
}

func (e *Email) BeforeSave(tx *gorm.DB) error {
	return e.validateImport()
}

func (e *Email) validateImport() error {
	if e.IsImported && e.ImportedCustomerID == "" {
		return ErrImportedWithoutCustomer
	}
	return nil
}

// Body returns the plain text body, or the HTML body when no text part exists.
func (e *Email) Body() string {
	if e.BodyText != "" {
		return e.BodyText
	}
	return e.BodyHTML
}
