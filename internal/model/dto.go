package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractorBrief struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
	Rating float64   `json:"rating"`
}

type WardBrief struct {
	ID     uuid.UUID `json:"id"`
	WardNo string    `json:"ward_no"`
	Name   string    `json:"name"`
}

type CompletionBrief struct {
	AfterImagePath string    `json:"after_image_path"`
	DistanceMeters float64   `json:"distance_meters"`
	AIVerified     bool      `json:"ai_verified"`
	AIMessage      string    `json:"ai_message,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ComplaintBrief struct {
	ID         uuid.UUID `json:"id"`
	ImagePath  string    `json:"image_path"`
	Street     string    `json:"street"`
	Area       string    `json:"area"`
	PostalCode string    `json:"postal_code"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
}

// TicketRecord is the ticket plus whatever related rows were preloaded,
// flattened for API responses.
type TicketRecord struct {
	Ticket     Ticket           `json:"ticket"`
	Complaint  *ComplaintBrief  `json:"complaint"`
	Contractor *ContractorBrief `json:"contractor"`
	Ward       *WardBrief       `json:"ward"`
	Completion *CompletionBrief `json:"completion"`
	Notes      []TicketNote     `json:"notes,omitempty"`
}

type DepartmentCounts struct {
	Department Department `json:"department"`
	Submitted  int64      `json:"submitted"`
	Assigned   int64      `json:"assigned"`
	InProgress int64      `json:"in_progress"`
	Resolved   int64      `json:"resolved"`
}
