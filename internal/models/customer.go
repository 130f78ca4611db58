package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

// Apartment describes one end of a move.
type Apartment struct {
	Rooms       int     `gorm:"column:rooms;default:0" json:"rooms"`
	Area        float64 `gorm:"column:area;default:0" json:"area"`
	Floor       int     `gorm:"column:floor;default:0" json:"floor"`
	HasElevator bool    `gorm:"column:has_elevator;default:false" json:"hasElevator"`
}

type Customer struct {
	ID             string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CustomerNumber string     `gorm:"column:customer_number;type:varchar(50);uniqueIndex" json:"customerNumber"`
	Name           string     `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email          string     `gorm:"column:email;type:varchar(255);index" json:"email"`
	Phone          string     `gorm:"column:phone;type:varchar(100);index" json:"phone"`
	MovingDate     *time.Time `gorm:"column:moving_date;type:date" json:"movingDate,omitempty"`
	FromAddress    string     `gorm:"column:from_address;type:varchar(500)" json:"fromAddress"`
	ToAddress      string     `gorm:"column:to_address;type:varchar(500)" json:"toAddress"`
	Distance       float64    `gorm:"column:distance;default:0" json:"distance,omitempty"`

	Apartment       Apartment `gorm:"embedded;embeddedPrefix:apartment_" json:"apartment"`
	TargetApartment Apartment `gorm:"embedded;embeddedPrefix:target_apartment_" json:"targetApartment"`

	Services     pq.StringArray     `gorm:"column:services;type:text[]" json:"services"`
	Notes        string             `gorm:"column:notes;type:text" json:"notes"`
	SalesStatus  enum.SalesStatus   `gorm:"column:sales_status;type:varchar(50);index" json:"salesStatus"`
	CurrentPhase enum.CustomerPhase `gorm:"column:current_phase;type:varchar(50);index" json:"currentPhase"`
	Tags         pq.StringArray     `gorm:"column:tags;type:text[]" json:"tags"`

	Source        enum.ImportSource `gorm:"column:source;type:varchar(50);index" json:"source"`
	SourceEmailID string            `gorm:"column:source_email_id;type:varchar(50);index" json:"sourceEmailId,omitempty"`
	LeadSource    enum.EmailSource  `gorm:"column:lead_source;type:varchar(50)" json:"leadSource,omitempty"`
	CreatedBy     string            `gorm:"column:created_by;type:varchar(255)" json:"createdBy,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("cust", 16)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.Now()
	}
	return nil
}
