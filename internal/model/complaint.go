package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintValidity string

const (
	ComplaintValidityUnknown ComplaintValidity = "UNKNOWN"
	ComplaintValidityValid   ComplaintValidity = "VALID"
	ComplaintValidityInvalid ComplaintValidity = "INVALID"
)

// Complaint is one photo-capture event from a citizen. A draft (Submitted
// false) that never spawns tickets is removed by the daily cleanup.
type Complaint struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	SessionID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"session_id"`
	ImagePath  string            `gorm:"type:text;not null" json:"image_path"`
	Street     string            `gorm:"type:varchar(255)" json:"street"`
	Area       string            `gorm:"type:varchar(255);not null" json:"area"`
	PostalCode string            `gorm:"type:varchar(10)" json:"postal_code"`
	Latitude   float64           `gorm:"type:numeric(10,7);not null" json:"latitude"`
	Longitude  float64           `gorm:"type:numeric(10,7);not null" json:"longitude"`
	Validity   ComplaintValidity `gorm:"type:complaint_validity;not null;default:'UNKNOWN'" json:"validity"`
	Submitted  bool              `gorm:"not null;default:false;index" json:"submitted"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Tickets []Ticket `gorm:"foreignKey:ComplaintID" json:"-"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.SessionID == uuid.Nil {
		c.SessionID = uuid.New()
	}
	return nil
}
