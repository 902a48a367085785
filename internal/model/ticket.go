package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusSubmitted  TicketStatus = "SUBMITTED"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusSubmitted, TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

type TicketSeverity string

const (
	TicketSeverityLow    TicketSeverity = "Low"
	TicketSeverityMedium TicketSeverity = "Medium"
	TicketSeverityHigh   TicketSeverity = "High"
)

type Ticket struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketNumber    string         `gorm:"type:varchar(20);not null;uniqueIndex" json:"ticket_number"`
	ComplaintID     uuid.UUID      `gorm:"type:uuid;not null" json:"complaint_id"`
	Category        string         `gorm:"type:varchar(100);not null" json:"category"`
	Severity        TicketSeverity `gorm:"type:varchar(50);not null" json:"severity"`
	Department      Department     `gorm:"type:varchar(100);not null" json:"department"`
	Status          TicketStatus   `gorm:"type:ticket_status;not null;default:'SUBMITTED'" json:"status"`
	ContractorID    *uuid.UUID     `gorm:"type:uuid" json:"contractor_id"`
	WardID          *uuid.UUID     `gorm:"type:uuid" json:"ward_id"`
	UserRating      *int           `gorm:"type:smallint" json:"user_rating"`
	AIVerified      *bool          `json:"ai_verified"`
	AIMessage       string         `gorm:"column:ai_verification_message;type:text" json:"ai_verification_message,omitempty"`
	SuggestedTools  string         `gorm:"type:text" json:"suggested_tools"`
	SafetyEquipment string         `gorm:"type:text" json:"safety_equipment"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Complaint  *Complaint        `gorm:"foreignKey:ComplaintID" json:"-"`
	Contractor *Contractor       `gorm:"foreignKey:ContractorID" json:"-"`
	Ward       *Ward             `gorm:"foreignKey:WardID" json:"-"`
	Completion *TicketCompletion `gorm:"foreignKey:TicketID" json:"-"`
	Notes      []TicketNote      `gorm:"foreignKey:TicketID" json:"-"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
