package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type TicketFilter struct {
	Statuses     []model.TicketStatus
	Departments  []model.Department
	Severities   []model.TicketSeverity
	ContractorID *uuid.UUID
	WardID       *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string
	Limit        int
	Offset       int
}

func (r *TicketRepository) List(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&model.Ticket{})

	if len(filter.Statuses) > 0 {
		query = query.Where("tickets.status IN ?", filter.Statuses)
	}
	if len(filter.Departments) > 0 {
		query = query.Where("tickets.department IN ?", filter.Departments)
	}
	if len(filter.Severities) > 0 {
		query = query.Where("tickets.severity IN ?", filter.Severities)
	}
	if filter.ContractorID != nil {
		query = query.Where("tickets.contractor_id = ?", *filter.ContractorID)
	}
	if filter.WardID != nil {
		query = query.Where("tickets.ward_id = ?", *filter.WardID)
	}
	if filter.DateFrom != nil {
		query = query.Where("tickets.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("tickets.created_at <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(tickets.ticket_number ILIKE ? OR tickets.category ILIKE ?)", search, search)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var tickets []model.Ticket
	if err := query.
		Order("tickets.created_at DESC").
		Preload("Complaint").
		Preload("Contractor").
		Preload("Ward").
		Preload("Completion").
		Find(&tickets).Error; err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Complaint").
		Preload("Contractor").
		Preload("Ward").
		Preload("Completion").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_notes.created_at DESC")
		}).
		First(&ticket, "tickets.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Complaint").
		Preload("Contractor").
		Preload("Ward").
		Preload("Completion").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_notes.created_at DESC")
		}).
		First(&ticket, "tickets.ticket_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) Create(ctx context.Context, tx *gorm.DB, ticket *model.Ticket) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(ticket).Error
}

func (r *TicketRepository) Updates(ctx context.Context, tx *gorm.DB, ticketID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("id = ?", ticketID).
		Updates(fields).Error
}

func (r *TicketRepository) AddNote(ctx context.Context, tx *gorm.DB, note *model.TicketNote) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(note).Error
}

func (r *TicketRepository) CreateCompletion(ctx context.Context, tx *gorm.DB, completion *model.TicketCompletion) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(completion).Error
}

func (r *TicketRepository) UpdateCompletion(ctx context.Context, tx *gorm.DB, completionID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.TicketCompletion{}).
		Where("id = ?", completionID).
		Updates(fields).Error
}

func (r *TicketRepository) HasCompletion(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TicketCompletion{}).
		Where("ticket_id = ?", ticketID).
		Count(&count).Error
	return count > 0, err
}

// NextTicketNumber allocates the next CMP-YYYYMMDD-NNN identifier for the
// given day. The day-row upsert is an atomic read-and-increment, so two
// concurrent callers can never observe the same counter value. Must run
// inside the transaction that also inserts the ticket, so a failed insert
// releases the number only together with the whole operation.
func (r *TicketRepository) NextTicketNumber(ctx context.Context, tx *gorm.DB, day time.Time) (string, error) {
	if tx == nil {
		tx = r.db
	}
	var counter int
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO ticket_counters (day, counter) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET counter = ticket_counters.counter + 1
		 RETURNING counter`,
		day.Format("2006-01-02"),
	).Scan(&counter).Error
	if err != nil {
		return "", err
	}
	return FormatTicketNumber(day, counter), nil
}

func FormatTicketNumber(day time.Time, counter int) string {
	return fmt.Sprintf("CMP-%s-%03d", day.Format("20060102"), counter)
}

// ValidTicketNumber reports whether s matches CMP-YYYYMMDD-NNN. The counter
// is three digits padded but widens once a day passes 999 tickets.
func ValidTicketNumber(s string) bool {
	if len(s) < 16 || s[:4] != "CMP-" || s[12] != '-' {
		return false
	}
	if _, err := time.Parse("20060102", s[4:12]); err != nil {
		return false
	}
	for _, c := range s[13:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *TicketRepository) CountsByStatus(ctx context.Context) (map[model.TicketStatus]int64, error) {
	rows := []struct {
		Status model.TicketStatus
		Count  int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.TicketStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *TicketRepository) CountsByDepartment(ctx context.Context) ([]model.DepartmentCounts, error) {
	var rows []model.DepartmentCounts
	err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Select(`department,
			COUNT(*) FILTER (WHERE status = 'SUBMITTED') AS submitted,
			COUNT(*) FILTER (WHERE status = 'ASSIGNED') AS assigned,
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS') AS in_progress,
			COUNT(*) FILTER (WHERE status = 'RESOLVED') AS resolved`).
		Group("department").
		Scan(&rows).Error
	return rows, err
}

// ListResolvedWithWard returns resolved tickets with their ward preloaded,
// oldest first, for the analytics report relay.
func (r *TicketRepository) ListResolvedWithWard(ctx context.Context, limit int) ([]model.Ticket, error) {
	if limit <= 0 {
		limit = 500
	}
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Where("status = ?", model.TicketStatusResolved).
		Order("created_at ASC").
		Limit(limit).
		Preload("Ward").
		Find(&tickets).Error
	return tickets, err
}

func (r *TicketRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
