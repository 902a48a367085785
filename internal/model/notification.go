package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeAssignment     NotificationType = "ASSIGNMENT"
	NotificationTypeStatusChange   NotificationType = "STATUS_CHANGE"
	NotificationTypeAIVerification NotificationType = "AI_VERIFICATION"
)

// Notification is an append-only event record surfaced to administrators.
// Only the Read flag is ever mutated.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketID  uuid.UUID        `gorm:"type:uuid;not null" json:"ticket_id"`
	Type      NotificationType `gorm:"type:notification_type;not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`

	Ticket *Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type NoteType string

const (
	NoteTypeStatusChange NoteType = "STATUS_CHANGE"
	NoteTypeAssignment   NoteType = "ASSIGNMENT"
	NoteTypeComment      NoteType = "COMMENT"
	NoteTypeSystem       NoteType = "SYSTEM"
)

// TicketNote is the audit trail for a ticket. Rows are never edited or
// deleted.
type TicketNote struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TicketID  uuid.UUID  `gorm:"type:uuid;not null" json:"ticket_id"`
	Type      NoteType   `gorm:"type:note_type;not null;default:'COMMENT'" json:"type"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (TicketNote) TableName() string {
	return "ticket_notes"
}

func (n *TicketNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
