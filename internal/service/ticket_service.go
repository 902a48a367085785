package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/gateway"
	"complaint-service/internal/geo"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type TicketService struct {
	ticketRepo       ticketStore
	directoryRepo    directoryStore
	notificationRepo notificationStore
	verifier         gateway.Verifier
	reporter         gateway.Reporter
	mediaStore       imageStore
	geofenceRadius   float64
	geofenceEnforced bool
	maxImageSize     int64
	log              zerolog.Logger
}

func NewTicketService(
	ticketRepo ticketStore,
	directoryRepo directoryStore,
	notificationRepo notificationStore,
	verifier gateway.Verifier,
	reporter gateway.Reporter,
	mediaStore imageStore,
	geofenceRadius float64,
	geofenceEnforced bool,
	maxImageSize int64,
	log zerolog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:       ticketRepo,
		directoryRepo:    directoryRepo,
		notificationRepo: notificationRepo,
		verifier:         verifier,
		reporter:         reporter,
		mediaStore:       mediaStore,
		geofenceRadius:   geofenceRadius,
		geofenceEnforced: geofenceEnforced,
		maxImageSize:     maxImageSize,
		log:              log,
	}
}

type ListTicketsOptions struct {
	Statuses    []model.TicketStatus
	Departments []model.Department
	Severities  []model.TicketSeverity
	WardID      *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
	Search      string
	Limit       int
	Offset      int
}

func (s *TicketService) List(ctx context.Context, principal model.Principal, opts ListTicketsOptions) ([]model.TicketRecord, error) {
	filter := repository.TicketFilter{
		Statuses:    opts.Statuses,
		Departments: opts.Departments,
		Severities:  opts.Severities,
		WardID:      opts.WardID,
		DateFrom:    opts.DateFrom,
		DateTo:      opts.DateTo,
		Search:      opts.Search,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}

	switch {
	case principal.IsAdmin():
	case principal.IsContractor():
		// Contractors only ever see their own assignments.
		filter.ContractorID = principal.ContractorID
	default:
		return nil, ErrPermissionDenied
	}

	tickets, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]model.TicketRecord, 0, len(tickets))
	for _, t := range tickets {
		records = append(records, buildTicketRecord(t, false))
	}
	return records, nil
}

func (s *TicketService) Get(ctx context.Context, principal model.Principal, ticketID uuid.UUID) (*model.TicketRecord, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if principal.IsContractor() {
		if ticket.ContractorID == nil || *ticket.ContractorID != *principal.ContractorID {
			return nil, ErrPermissionDenied
		}
	} else if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	record := buildTicketRecord(*ticket, true)
	return &record, nil
}

// TrackByNumber serves the citizen-facing tracker. No principal scoping: the
// ticket number itself is the access token.
func (s *TicketService) TrackByNumber(ctx context.Context, number string) (*model.TicketRecord, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !repository.ValidTicketNumber(number) {
		return nil, fmt.Errorf("%w: malformed ticket number", ErrInvalidInput)
	}

	ticket, err := s.ticketRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	record := buildTicketRecord(*ticket, true)
	return &record, nil
}

// Assign puts a contractor and/or ward on the ticket. A freshly submitted
// ticket moves to ASSIGNED; any other status is left for the explicit
// status-update path.
func (s *TicketService) Assign(ctx context.Context, principal model.Principal, ticketID uuid.UUID, contractorID, wardID *uuid.UUID) (*model.TicketRecord, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if contractorID == nil && wardID == nil {
		return nil, fmt.Errorf("%w: nothing to assign", ErrInvalidInput)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	noteParts := []string{}

	if contractorID != nil {
		contractor, err := s.directoryRepo.GetContractor(ctx, *contractorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: contractor", ErrNotFound)
			}
			return nil, err
		}
		fields["contractor_id"] = contractor.ID
		noteParts = append(noteParts, "Contractor: "+contractor.Name)
	}
	if wardID != nil {
		ward, err := s.directoryRepo.GetWard(ctx, *wardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: ward", ErrNotFound)
			}
			return nil, err
		}
		fields["ward_id"] = ward.ID
		noteParts = append(noteParts, fmt.Sprintf("Ward: %s (#%s)", ward.Name, ward.WardNo))
	}

	if ticket.Status == model.TicketStatusSubmitted {
		fields["status"] = model.TicketStatusAssigned
	}

	err = s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ticketRepo.Updates(ctx, tx, ticket.ID, fields); err != nil {
			return err
		}
		return s.ticketRepo.AddNote(ctx, tx, &model.TicketNote{
			TicketID:  ticket.ID,
			Type:      model.NoteTypeAssignment,
			Content:   "Assigned - " + strings.Join(noteParts, ", "),
			CreatedBy: &principal.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.getTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	record := buildTicketRecord(*updated, false)
	return &record, nil
}

// UpdateStatus is the administrative override: any target status is allowed,
// and the old and new states are recorded on the audit trail.
func (s *TicketService) UpdateStatus(ctx context.Context, principal model.Principal, ticketID uuid.UUID, target model.TicketStatus) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	return s.transitionStatus(ctx, ticket, target, &principal.UserID)
}

func (s *TicketService) transitionStatus(ctx context.Context, ticket *model.Ticket, target model.TicketStatus, changedBy *uuid.UUID) error {
	fields := map[string]interface{}{"status": target}
	if target == model.TicketStatusResolved && ticket.ResolvedAt == nil {
		fields["resolved_at"] = time.Now()
	}

	return s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ticketRepo.Updates(ctx, tx, ticket.ID, fields); err != nil {
			return err
		}
		return s.ticketRepo.AddNote(ctx, tx, &model.TicketNote{
			TicketID:  ticket.ID,
			Type:      model.NoteTypeStatusChange,
			Content:   fmt.Sprintf("Status changed from %s to %s", ticket.Status, target),
			CreatedBy: changedBy,
		})
	})
}

// BulkAssign applies the assignment to each ticket independently; one bad
// ticket never aborts the rest. Returns the number of tickets updated.
func (s *TicketService) BulkAssign(ctx context.Context, principal model.Principal, ticketIDs []uuid.UUID, contractorID, wardID *uuid.UUID) (int, error) {
	if !principal.IsAdmin() {
		return 0, ErrPermissionDenied
	}
	if len(ticketIDs) == 0 {
		return 0, fmt.Errorf("%w: no tickets selected", ErrInvalidInput)
	}

	updated := 0
	for _, id := range ticketIDs {
		if _, err := s.Assign(ctx, principal, id, contractorID, wardID); err != nil {
			s.log.Warn().Err(err).Str("ticket_id", id.String()).Msg("bulk assign: skipping ticket")
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *TicketService) BulkUpdateStatus(ctx context.Context, principal model.Principal, ticketIDs []uuid.UUID, target model.TicketStatus) (int, error) {
	if !principal.IsAdmin() {
		return 0, ErrPermissionDenied
	}
	if len(ticketIDs) == 0 {
		return 0, fmt.Errorf("%w: no tickets selected", ErrInvalidInput)
	}
	if !target.Valid() {
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}

	updated := 0
	for _, id := range ticketIDs {
		if err := s.UpdateStatus(ctx, principal, id, target); err != nil {
			s.log.Warn().Err(err).Str("ticket_id", id.String()).Msg("bulk status: skipping ticket")
			continue
		}
		updated++
	}
	return updated, nil
}

// StartWork moves the contractor's ticket from ASSIGNED to IN_PROGRESS and
// notifies administrators.
func (s *TicketService) StartWork(ctx context.Context, principal model.Principal, ticketID uuid.UUID) error {
	if !principal.IsContractor() {
		return ErrPermissionDenied
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.ContractorID == nil || *ticket.ContractorID != *principal.ContractorID {
		return ErrPermissionDenied
	}
	if ticket.Status != model.TicketStatusAssigned {
		return fmt.Errorf("%w: current status is %s", ErrInvalidStatus, ticket.Status)
	}

	contractorName := ""
	if ticket.Contractor != nil {
		contractorName = ticket.Contractor.Name
	}

	return s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ticketRepo.Updates(ctx, tx, ticket.ID, map[string]interface{}{
			"status": model.TicketStatusInProgress,
		}); err != nil {
			return err
		}
		if err := s.ticketRepo.AddNote(ctx, tx, &model.TicketNote{
			TicketID:  ticket.ID,
			Type:      model.NoteTypeStatusChange,
			Content:   fmt.Sprintf("Status changed from %s to %s", model.TicketStatusAssigned, model.TicketStatusInProgress),
			CreatedBy: &principal.UserID,
		}); err != nil {
			return err
		}
		return s.notificationRepo.Create(ctx, tx, &model.Notification{
			TicketID: ticket.ID,
			Type:     model.NotificationTypeStatusChange,
			Message:  fmt.Sprintf("Contractor %s has started work on ticket %s.", contractorName, ticket.TicketNumber),
		})
	})
}

type CompletionInput struct {
	AfterImage []byte
	ImageExt   string
	Latitude   float64
	Longitude  float64
}

type CompletionOutcome struct {
	AIVerified     bool    `json:"ai_verified"`
	Message        string  `json:"message"`
	DistanceMeters float64 `json:"distance_meters"`
	WithinRadius   bool    `json:"within_radius"`
}

// SubmitCompletion records the contractor's evidence and runs AI
// verification. A verifier outage degrades to an unverified submission with
// the failure recorded; a storage failure rolls the whole submission back.
func (s *TicketService) SubmitCompletion(ctx context.Context, principal model.Principal, ticketID uuid.UUID, input CompletionInput) (*CompletionOutcome, error) {
	if !principal.IsContractor() {
		return nil, ErrPermissionDenied
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ContractorID == nil || *ticket.ContractorID != *principal.ContractorID {
		return nil, ErrPermissionDenied
	}
	if ticket.Complaint == nil {
		return nil, fmt.Errorf("ticket %s has no complaint", ticket.TicketNumber)
	}

	exists, err := s.ticketRepo.HasCompletion(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}
	if len(input.AfterImage) == 0 {
		return nil, fmt.Errorf("%w: after-work photo is required", ErrInvalidInput)
	}
	if int64(len(input.AfterImage)) > s.maxImageSize {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidInput, s.maxImageSize)
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}

	within, distance := geo.WithinRadius(
		ticket.Complaint.Latitude, ticket.Complaint.Longitude,
		input.Latitude, input.Longitude,
		s.geofenceRadius,
	)
	if s.geofenceEnforced && !within {
		return nil, fmt.Errorf("%w: submission location is %.0fm from the complaint site (limit %.0fm)",
			ErrInvalidInput, distance, s.geofenceRadius)
	}

	afterPath, err := s.mediaStore.SaveCompletionImage(ticket.ID, input.ImageExt, input.AfterImage)
	if err != nil {
		return nil, err
	}

	verified, message := s.verify(ctx, ticket, input.AfterImage)

	completion := &model.TicketCompletion{
		TicketID:       ticket.ID,
		ContractorID:   *principal.ContractorID,
		AfterImagePath: afterPath,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		DistanceMeters: distance,
		AIVerified:     verified,
		AIMessage:      message,
	}

	err = s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ticketRepo.CreateCompletion(ctx, tx, completion); err != nil {
			return err
		}
		if err := s.ticketRepo.Updates(ctx, tx, ticket.ID, map[string]interface{}{
			"ai_verified":             verified,
			"ai_verification_message": message,
		}); err != nil {
			return err
		}
		if verified {
			contractorName := ""
			if ticket.Contractor != nil {
				contractorName = ticket.Contractor.Name
			}
			return s.notificationRepo.Create(ctx, tx, &model.Notification{
				TicketID: ticket.ID,
				Type:     model.NotificationTypeAIVerification,
				Message: fmt.Sprintf(
					"Work completion for ticket %s has been verified by AI. Contractor: %s. You can now mark this ticket as resolved.",
					ticket.TicketNumber, contractorName),
			})
		}
		return nil
	})
	if err != nil {
		// The submission never happened; drop the orphaned photo.
		if delErr := s.mediaStore.Delete(afterPath); delErr != nil {
			s.log.Warn().Err(delErr).Str("path", afterPath).Msg("failed to remove orphaned completion photo")
		}
		// Two concurrent submissions both pass the HasCompletion check;
		// the unique index on ticket_id decides the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}

	outcome := &CompletionOutcome{
		AIVerified:     verified,
		DistanceMeters: distance,
		WithinRadius:   within,
	}
	if verified {
		outcome.Message = "Work completion submitted. AI has verified your work; an administrator will mark the ticket as resolved."
	} else if message != "" {
		outcome.Message = "Work completion submitted. AI verification did not pass: " + message
	} else {
		outcome.Message = "Work completion submitted. AI verification did not pass."
	}
	return outcome, nil
}

// verify runs the completion check, degrading a gateway failure to an
// unverified result with the diagnostic attached.
func (s *TicketService) verify(ctx context.Context, ticket *model.Ticket, afterImage []byte) (bool, string) {
	beforeImage, err := s.mediaStore.Read(ticket.Complaint.ImagePath)
	if err != nil {
		s.log.Error().Err(err).Str("ticket", ticket.TicketNumber).Msg("before photo unreadable, skipping verification")
		return false, "verification skipped: original photo unavailable"
	}

	result, err := s.verifier.VerifyCompletion(ctx, gateway.VerifyRequest{
		BeforeImage: beforeImage,
		AfterImage:  afterImage,
		Category:    ticket.Category,
	})
	if err != nil {
		s.log.Error().Err(err).Str("ticket", ticket.TicketNumber).Msg("completion verification failed")
		return false, "verification unavailable: " + err.Error()
	}
	return result.Completed, result.Message
}

// SubmitRating stores the citizen's rating and recomputes the contractor's
// average. The rating is write-once; repeating the same call is a conflict,
// so the average is never recomputed from a no-op save.
func (s *TicketService) SubmitRating(ctx context.Context, number string, rating int) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	ticket, err := s.ticketRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if ticket.Status != model.TicketStatusResolved {
		return 0, fmt.Errorf("%w: ticket is %s, rating requires RESOLVED", ErrInvalidStatus, ticket.Status)
	}
	if ticket.UserRating != nil {
		return 0, fmt.Errorf("%w: ticket already rated", ErrConflict)
	}

	var average float64
	err = s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ticketRepo.Updates(ctx, tx, ticket.ID, map[string]interface{}{
			"user_rating": rating,
		}); err != nil {
			return err
		}
		if ticket.ContractorID == nil {
			return nil
		}
		avg, err := s.directoryRepo.RecomputeContractorRating(ctx, tx, *ticket.ContractorID)
		if err != nil {
			return err
		}
		average = avg
		return nil
	})
	if err != nil {
		return 0, err
	}
	return average, nil
}

func (s *TicketService) AddNote(ctx context.Context, principal model.Principal, ticketID uuid.UUID, content string) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: note content is required", ErrInvalidInput)
	}

	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return err
	}

	return s.ticketRepo.AddNote(ctx, nil, &model.TicketNote{
		TicketID:  ticketID,
		Type:      model.NoteTypeComment,
		Content:   content,
		CreatedBy: &principal.UserID,
	})
}

type DashboardSummary struct {
	Submitted   int64                    `json:"submitted"`
	Assigned    int64                    `json:"assigned"`
	InProgress  int64                    `json:"in_progress"`
	Resolved    int64                    `json:"resolved"`
	Departments []model.DepartmentCounts `json:"departments"`
}

func (s *TicketService) Dashboard(ctx context.Context, principal model.Principal) (*DashboardSummary, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	counts, err := s.ticketRepo.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.ticketRepo.CountsByDepartment(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		Submitted:   counts[model.TicketStatusSubmitted],
		Assigned:    counts[model.TicketStatusAssigned],
		InProgress:  counts[model.TicketStatusInProgress],
		Resolved:    counts[model.TicketStatusResolved],
		Departments: departments,
	}, nil
}

// AnalyticsReport relays resolved-ticket history to the analytics model and
// returns its HTML report verbatim.
func (s *TicketService) AnalyticsReport(ctx context.Context, principal model.Principal) (string, error) {
	if !principal.IsAdmin() {
		return "", ErrPermissionDenied
	}

	tickets, err := s.ticketRepo.ListResolvedWithWard(ctx, 500)
	if err != nil {
		return "", err
	}

	report := make([]gateway.ReportTicket, 0, len(tickets))
	for _, t := range tickets {
		item := gateway.ReportTicket{
			TicketNumber: t.TicketNumber,
			Category:     t.Category,
			Severity:     string(t.Severity),
			Department:   string(t.Department),
			CreatedAt:    t.CreatedAt,
			ResolvedAt:   t.ResolvedAt,
		}
		if t.Ward != nil {
			item.WardNo = t.Ward.WardNo
			item.WardName = t.Ward.Name
		}
		report = append(report, item)
	}

	html, err := s.reporter.PredictReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return html, nil
}

func (s *TicketService) getTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	return nil
}

func buildTicketRecord(t model.Ticket, includeNotes bool) model.TicketRecord {
	record := model.TicketRecord{Ticket: t}

	if t.Complaint != nil {
		record.Complaint = &model.ComplaintBrief{
			ID:         t.Complaint.ID,
			ImagePath:  t.Complaint.ImagePath,
			Street:     t.Complaint.Street,
			Area:       t.Complaint.Area,
			PostalCode: t.Complaint.PostalCode,
			Latitude:   t.Complaint.Latitude,
			Longitude:  t.Complaint.Longitude,
		}
	}
	if t.Contractor != nil {
		record.Contractor = &model.ContractorBrief{
			ID:     t.Contractor.ID,
			Name:   t.Contractor.Name,
			Phone:  t.Contractor.Phone,
			Rating: t.Contractor.Rating,
		}
	}
	if t.Ward != nil {
		record.Ward = &model.WardBrief{
			ID:     t.Ward.ID,
			WardNo: t.Ward.WardNo,
			Name:   t.Ward.Name,
		}
	}
	if t.Completion != nil {
		record.Completion = &model.CompletionBrief{
			AfterImagePath: t.Completion.AfterImagePath,
			DistanceMeters: t.Completion.DistanceMeters,
			AIVerified:     t.Completion.AIVerified,
			AIMessage:      t.Completion.AIMessage,
			SubmittedAt:    t.Completion.CreatedAt,
		}
	}
	if includeNotes {
		record.Notes = t.Notes
	}

	// Relations are flattened into briefs; drop the embedded rows.
	record.Ticket.Complaint = nil
	record.Ticket.Contractor = nil
	record.Ticket.Ward = nil
	record.Ticket.Completion = nil
	record.Ticket.Notes = nil

	return record
}
