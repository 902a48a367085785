package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// Persistence seams the services depend on. The gorm-backed repositories are
// the production implementations; a nil tx means the repository's own handle.

type complaintStore interface {
	Create(ctx context.Context, complaint *model.Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
	Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListDrafts(ctx context.Context, cutoff time.Time) ([]model.Complaint, error)
}

type ticketStore interface {
	List(ctx context.Context, filter repository.TicketFilter) ([]model.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*model.Ticket, error)
	Create(ctx context.Context, tx *gorm.DB, ticket *model.Ticket) error
	Updates(ctx context.Context, tx *gorm.DB, ticketID uuid.UUID, fields map[string]interface{}) error
	AddNote(ctx context.Context, tx *gorm.DB, note *model.TicketNote) error
	CreateCompletion(ctx context.Context, tx *gorm.DB, completion *model.TicketCompletion) error
	HasCompletion(ctx context.Context, ticketID uuid.UUID) (bool, error)
	NextTicketNumber(ctx context.Context, tx *gorm.DB, day time.Time) (string, error)
	CountsByStatus(ctx context.Context) (map[model.TicketStatus]int64, error)
	CountsByDepartment(ctx context.Context) ([]model.DepartmentCounts, error)
	ListResolvedWithWard(ctx context.Context, limit int) ([]model.Ticket, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type directoryStore interface {
	CreateWard(ctx context.Context, ward *model.Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*model.Ward, error)
	ListWards(ctx context.Context) ([]model.Ward, error)
	UpdateWard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteWard(ctx context.Context, id uuid.UUID) error
	CountWardContractors(ctx context.Context, wardID uuid.UUID) (int64, error)
	CountWardTickets(ctx context.Context, wardID uuid.UUID) (int64, error)
	CreateContractor(ctx context.Context, contractor *model.Contractor) error
	GetContractor(ctx context.Context, id uuid.UUID) (*model.Contractor, error)
	ListContractors(ctx context.Context, filter repository.ContractorFilter) ([]model.Contractor, error)
	ReplaceContractorWards(ctx context.Context, contractorID uuid.UUID, wardIDs []uuid.UUID) error
	RecomputeContractorRating(ctx context.Context, tx *gorm.DB, contractorID uuid.UUID) (float64, error)
}

type notificationStore interface {
	Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error
}

type imageStore interface {
	SaveComplaintImage(sessionID uuid.UUID, ext string, data []byte) (string, error)
	SaveCompletionImage(ticketID uuid.UUID, ext string, data []byte) (string, error)
	Read(rel string) ([]byte, error)
	Delete(rel string) error
}

type wardResolver interface {
	ResolveWard(ctx context.Context, lat, lon float64) *model.Ward
}
