package models

import (
	"time"

	"github.com/relocrm/leadstack/internal/enum"
)

type SharePermissions struct {
	ViewCustomer bool `gorm:"column:view_customer;default:true" json:"viewCustomer"`
	ViewQuote    bool `gorm:"column:view_quote;default:false" json:"viewQuote"`
	ViewInvoice  bool `gorm:"column:view_invoice;default:false" json:"viewInvoice"`
	ViewPhotos   bool `gorm:"column:view_photos;default:true" json:"viewPhotos"`
}

func DefaultSharePermissions() SharePermissions {
	return SharePermissions{
		ViewCustomer: true,
		ViewQuote:    false,
		ViewInvoice:  false,
		ViewPhotos:   true,
	}
}

type ShareToken struct {
	Token          string                `gorm:"column:token;type:varchar(64);primaryKey" json:"id"`
	CustomerID     string                `gorm:"column:customer_id;type:varchar(50);index;not null" json:"customerId"`
	CustomerName   string                `gorm:"column:customer_name;type:varchar(255)" json:"customerName"`
	QuoteID        string                `gorm:"column:quote_id;type:varchar(50)" json:"quoteId"`
	CreatedBy      string                `gorm:"column:created_by;type:varchar(255)" json:"createdBy"`
	Status         enum.ShareTokenStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	Permissions    SharePermissions      `gorm:"embedded;embeddedPrefix:perm_" json:"permissions"`
	AccessCount    int64                 `gorm:"column:access_count;not null;default:0" json:"accessCount"`
	LastAccessedAt *time.Time            `gorm:"column:last_accessed_at;type:timestamp" json:"lastAccessedAt,omitempty"`
	ExpiresAt      time.Time             `gorm:"column:expires_at;type:timestamp;index;not null" json:"expiresAt"`
	RevokedAt      *time.Time            `gorm:"column:revoked_at;type:timestamp" json:"revokedAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (ShareToken) TableName() string {
	return "share_tokens"
}

// IsValidAt reports whether the token grants access at the given instant.
func (s *ShareToken) IsValidAt(now time.Time) bool {
	return s.Status == enum.ShareTokenActive && now.Before(s.ExpiresAt)
}
