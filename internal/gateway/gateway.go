package gateway

import (
	"context"
	"time"

	"complaint-service/internal/model"
)

// Issue is one civic problem the vision model detected in a complaint photo.
type Issue struct {
	Category        string           `json:"category"`
	Department      model.Department `json:"department"`
	Severity        string           `json:"severity"`
	SuggestedTools  []string         `json:"suggested_tools"`
	SafetyEquipment []string         `json:"safety_equipment"`
}

// ClassificationResult carries the classifier's verdict on a complaint photo.
// Valid false means the photo shows no recognizable civic issue; Reason holds
// the model's explanation.
type ClassificationResult struct {
	Valid  bool
	Issues []Issue
	Reason string
}

type VerificationResult struct {
	Completed bool
	Message   string
}

type AnalyzeRequest struct {
	Image      []byte
	Street     string
	Area       string
	PostalCode string
	Latitude   float64
	Longitude  float64
}

type VerifyRequest struct {
	BeforeImage []byte
	AfterImage  []byte
	Category    string
}

type ReportTicket struct {
	TicketNumber string     `json:"ticket_number"`
	Category     string     `json:"category"`
	Severity     string     `json:"severity"`
	Department   string     `json:"department"`
	WardNo       string     `json:"ward_no"`
	WardName     string     `json:"ward_name"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

// Classifier validates a complaint photo and classifies the issues in it.
type Classifier interface {
	AnalyzeComplaint(ctx context.Context, req AnalyzeRequest) (ClassificationResult, error)
}

// Verifier compares before/after photos and decides whether the declared
// issue is resolved.
type Verifier interface {
	VerifyCompletion(ctx context.Context, req VerifyRequest) (VerificationResult, error)
}

// Reporter relays resolved-ticket history to the analytics model and returns
// its free-text HTML report.
type Reporter interface {
	PredictReport(ctx context.Context, tickets []ReportTicket) (string, error)
}
