package models

import (
	"time"

	"github.com/relocrm/leadstack/internal/enum"
)

// MailboxSyncState tracks the last sync pass of a mailbox folder.
type MailboxSyncState struct {
	ID        string           `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	MailboxID string           `gorm:"column:mailbox_id;type:varchar(100);uniqueIndex:idx_mailbox_folder;not null" json:"mailboxId"`
	Folder    enum.EmailFolder `gorm:"column:folder;type:varchar(100);uniqueIndex:idx_mailbox_folder;not null" json:"folder"`
	LastUID   uint32           `gorm:"column:last_uid;not null;default:0" json:"lastUid"`
	LastCount int              `gorm:"column:last_count;not null;default:0" json:"lastCount"`
	LastError string           `gorm:"column:last_error;type:text" json:"lastError,omitempty"`
	LastSync  time.Time        `gorm:"column:last_sync;type:timestamp;not null" json:"lastSync"`
	CreatedAt time.Time        `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"-"`
	UpdatedAt time.Time        `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"-"`
}

func (MailboxSyncState) TableName() string {
	return "mailbox_sync_states"
}
