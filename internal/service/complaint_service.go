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
	"complaint-service/internal/geocode"
	"complaint-service/internal/model"
)

type ComplaintService struct {
	complaintRepo complaintStore
	ticketRepo    ticketStore
	directory     wardResolver
	geocoder      geocode.Geocoder
	classifier    gateway.Classifier
	fallback      gateway.Classifier
	mediaStore    imageStore
	maxImageSize  int64
	log           zerolog.Logger
}

func NewComplaintService(
	complaintRepo complaintStore,
	ticketRepo ticketStore,
	directory wardResolver,
	geocoder geocode.Geocoder,
	classifier gateway.Classifier,
	fallback gateway.Classifier,
	mediaStore imageStore,
	maxImageSize int64,
	log zerolog.Logger,
) *ComplaintService {
	return &ComplaintService{
		complaintRepo: complaintRepo,
		ticketRepo:    ticketRepo,
		directory:     directory,
		geocoder:      geocoder,
		classifier:    classifier,
		fallback:      fallback,
		mediaStore:    mediaStore,
		maxImageSize:  maxImageSize,
		log:           log,
	}
}

type CaptureInput struct {
	SessionID  uuid.UUID
	Image      []byte
	ImageExt   string
	Street     string
	Area       string
	PostalCode string
	Latitude   float64
	Longitude  float64
}

// Capture stores the photo and location as an unsubmitted draft. The draft
// stays invisible to staff until the citizen confirms submission. Address
// fields the citizen left blank are filled by reverse geocoding the
// coordinates when a geocoder is configured.
func (s *ComplaintService) Capture(ctx context.Context, input CaptureInput) (*model.Complaint, error) {
	if len(input.Image) == 0 {
		return nil, fmt.Errorf("%w: photo is required", ErrInvalidInput)
	}
	if int64(len(input.Image)) > s.maxImageSize {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidInput, s.maxImageSize)
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}
	s.fillAddress(ctx, &input)
	if strings.TrimSpace(input.Area) == "" {
		return nil, fmt.Errorf("%w: area is required", ErrInvalidInput)
	}
	if input.SessionID == uuid.Nil {
		input.SessionID = uuid.New()
	}

	path, err := s.mediaStore.SaveComplaintImage(input.SessionID, input.ImageExt, input.Image)
	if err != nil {
		return nil, err
	}

	complaint := &model.Complaint{
		SessionID:  input.SessionID,
		ImagePath:  path,
		Street:     strings.TrimSpace(input.Street),
		Area:       strings.TrimSpace(input.Area),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Validity:   model.ComplaintValidityUnknown,
	}
	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		if delErr := s.mediaStore.Delete(path); delErr != nil {
			s.log.Warn().Err(delErr).Str("path", path).Msg("failed to remove orphaned complaint photo")
		}
		return nil, err
	}
	return complaint, nil
}

// fillAddress reverse-geocodes the coordinates and fills address fields the
// citizen left blank. Typed values always win over the geocoder's. A geocoder
// failure is logged and the capture proceeds with whatever the citizen gave.
func (s *ComplaintService) fillAddress(ctx context.Context, input *CaptureInput) {
	if s.geocoder == nil {
		return
	}
	addr, err := s.geocoder.Reverse(ctx, input.Latitude, input.Longitude)
	if err != nil {
		s.log.Warn().Err(err).
			Float64("lat", input.Latitude).
			Float64("lon", input.Longitude).
			Msg("reverse geocoding failed")
		return
	}
	if strings.TrimSpace(input.Street) == "" {
		input.Street = addr.Street
	}
	if strings.TrimSpace(input.Area) == "" {
		input.Area = addr.Area
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		input.PostalCode = addr.PostalCode
	}
}

type SubmitResult struct {
	Valid   bool           `json:"valid"`
	Reason  string         `json:"reason,omitempty"`
	Tickets []model.Ticket `json:"tickets,omitempty"`
}

// Submit confirms the draft, runs image classification and either opens one
// ticket per detected issue or discards the complaint with the model's
// reason. A classifier outage surfaces as a gateway error and leaves the
// draft untouched, so the citizen can retry the submission.
func (s *ComplaintService) Submit(ctx context.Context, complaintID uuid.UUID) (*SubmitResult, error) {
	complaint, err := s.complaintRepo.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if complaint.Submitted {
		return nil, ErrDuplicateSubmission
	}

	image, err := s.mediaStore.Read(complaint.ImagePath)
	if err != nil {
		return nil, err
	}

	result, err := s.classify(ctx, gateway.AnalyzeRequest{
		Image:      image,
		Street:     complaint.Street,
		Area:       complaint.Area,
		PostalCode: complaint.PostalCode,
		Latitude:   complaint.Latitude,
		Longitude:  complaint.Longitude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if !result.Valid || len(result.Issues) == 0 {
		reason := result.Reason
		if reason == "" {
			reason = "no actionable civic issue detected in the photo"
		}
		// Invalid submissions leave no trace: the row and the photo go.
		if err := s.complaintRepo.Delete(ctx, complaint.ID); err != nil {
			return nil, err
		}
		if err := s.mediaStore.Delete(complaint.ImagePath); err != nil {
			s.log.Warn().Err(err).Str("path", complaint.ImagePath).Msg("failed to remove rejected complaint photo")
		}
		return &SubmitResult{Valid: false, Reason: reason}, nil
	}

	ward := s.directory.ResolveWard(ctx, complaint.Latitude, complaint.Longitude)

	var tickets []model.Ticket
	err = s.ticketRepo.Transaction(ctx, func(tx *gorm.DB) error {
		// The submitted flag flips only together with the tickets it
		// produced: a failed transaction leaves the draft retryable.
		if err := s.complaintRepo.Updates(ctx, tx, complaint.ID, map[string]interface{}{
			"validity":  model.ComplaintValidityValid,
			"submitted": true,
		}); err != nil {
			return err
		}
		now := time.Now()
		for _, issue := range result.Issues {
			number, err := s.ticketRepo.NextTicketNumber(ctx, tx, now)
			if err != nil {
				return err
			}
			ticket := model.Ticket{
				TicketNumber:    number,
				ComplaintID:     complaint.ID,
				Category:        issue.Category,
				Severity:        model.TicketSeverity(issue.Severity),
				Department:      issue.Department,
				Status:          model.TicketStatusSubmitted,
				SuggestedTools:  strings.Join(issue.SuggestedTools, ", "),
				SafetyEquipment: strings.Join(issue.SafetyEquipment, ", "),
			}
			if ward != nil {
				ticket.WardID = &ward.ID
			}
			if err := s.ticketRepo.Create(ctx, tx, &ticket); err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SubmitResult{Valid: true, Tickets: tickets}, nil
}

func (s *ComplaintService) classify(ctx context.Context, req gateway.AnalyzeRequest) (gateway.ClassificationResult, error) {
	result, err := s.classifier.AnalyzeComplaint(ctx, req)
	if err == nil {
		return result, nil
	}
	if s.fallback == nil {
		return gateway.ClassificationResult{}, err
	}
	s.log.Warn().Err(err).Msg("classifier unavailable, using fallback")
	return s.fallback.AnalyzeComplaint(ctx, req)
}

// CleanupDrafts removes unsubmitted drafts created on or before the cutoff,
// photos included. Returns the number of drafts removed.
func (s *ComplaintService) CleanupDrafts(ctx context.Context, cutoff time.Time) (int, error) {
	drafts, err := s.complaintRepo.ListDrafts(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, draft := range drafts {
		if err := s.complaintRepo.Delete(ctx, draft.ID); err != nil {
			s.log.Error().Err(err).Str("complaint_id", draft.ID.String()).Msg("draft cleanup: delete failed")
			continue
		}
		if err := s.mediaStore.Delete(draft.ImagePath); err != nil {
			s.log.Warn().Err(err).Str("path", draft.ImagePath).Msg("draft cleanup: photo removal failed")
		}
		removed++
	}
	return removed, nil
}

// RunCleanupLoop fires the draft cleanup once a day at the configured local
// time until the context is cancelled.
func (s *ComplaintService) RunCleanupLoop(ctx context.Context, at string) {
	target, err := time.Parse("15:04", at)
	if err != nil {
		s.log.Error().Err(err).Str("at", at).Msg("invalid cleanup time, loop not started")
		return
	}

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), target.Hour(), target.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case fired := <-timer.C:
			removed, err := s.CleanupDrafts(ctx, fired)
			if err != nil {
				s.log.Error().Err(err).Msg("draft cleanup failed")
				continue
			}
			s.log.Info().Int("removed", removed).Msg("draft cleanup completed")
		}
	}
}
