package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketCompletion is the contractor's evidence submission. At most one row
// per ticket, enforced by a unique index on TicketID.
type TicketCompletion struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`
	ContractorID   uuid.UUID `gorm:"type:uuid;not null" json:"contractor_id"`
	AfterImagePath string    `gorm:"type:text;not null" json:"after_image_path"`
	Latitude       float64   `gorm:"type:numeric(10,7);not null" json:"latitude"`
	Longitude      float64   `gorm:"type:numeric(10,7);not null" json:"longitude"`
	DistanceMeters float64   `gorm:"type:numeric(10,2);not null" json:"distance_meters"`
	AIVerified     bool      `gorm:"not null;default:false" json:"ai_verified"`
	AIMessage      string    `gorm:"type:text" json:"ai_message"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Ticket     *Ticket     `gorm:"foreignKey:TicketID" json:"-"`
	Contractor *Contractor `gorm:"foreignKey:ContractorID" json:"-"`
}

func (TicketCompletion) TableName() string {
	return "ticket_completions"
}

func (tc *TicketCompletion) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	return nil
}
