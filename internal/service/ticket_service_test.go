package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/gateway"
	"complaint-service/internal/model"
)

func assignedTicket(contractorID uuid.UUID) *model.Ticket {
	complaint := &model.Complaint{
		ID:        uuid.New(),
		ImagePath: "complaints/before.jpg",
		Latitude:  23.0225,
		Longitude: 72.5714,
	}
	return &model.Ticket{
		ID:           uuid.New(),
		TicketNumber: "CMP-20250901-001",
		Category:     "pothole",
		Status:       model.TicketStatusAssigned,
		ContractorID: &contractorID,
		Complaint:    complaint,
		Contractor:   &model.Contractor{ID: contractorID, Name: "Road Crew"},
	}
}

func TestStartWorkRejectsNonAssignedStatus(t *testing.T) {
	contractorID := uuid.New()
	principal := contractorPrincipal(contractorID)

	for _, status := range []model.TicketStatus{
		model.TicketStatusSubmitted,
		model.TicketStatusInProgress,
		model.TicketStatusResolved,
	} {
		ticket := assignedTicket(contractorID)
		ticket.Status = status
		store := newFakeTicketStore(ticket)
		notifications := &fakeNotificationStore{}
		svc := testTicketService(store, newFakeDirectoryStore(), notifications, &fakeVerifier{}, newFakeImageStore(), false)

		err := svc.StartWork(context.Background(), principal, ticket.ID)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("status %s: expected ErrInvalidStatus, got %v", status, err)
		}
		if store.tickets[ticket.ID].Status != status {
			t.Fatalf("status %s: ticket status changed to %s", status, store.tickets[ticket.ID].Status)
		}
		if len(store.notes) != 0 || len(notifications.notifications) != 0 {
			t.Fatalf("status %s: rejected start must leave no trail", status)
		}
	}
}

func TestStartWorkTransitionsAndNotifies(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	store := newFakeTicketStore(ticket)
	notifications := &fakeNotificationStore{}
	svc := testTicketService(store, newFakeDirectoryStore(), notifications, &fakeVerifier{}, newFakeImageStore(), false)

	if err := svc.StartWork(context.Background(), contractorPrincipal(contractorID), ticket.ID); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if got := store.tickets[ticket.ID].Status; got != model.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}
	if len(store.notes) != 1 || store.notes[0].Type != model.NoteTypeStatusChange {
		t.Fatalf("expected one status-change note, got %+v", store.notes)
	}
	if len(notifications.notifications) != 1 {
		t.Fatalf("expected admin notification, got %d", len(notifications.notifications))
	}
	if !strings.Contains(notifications.notifications[0].Message, ticket.TicketNumber) {
		t.Fatalf("notification should name the ticket: %q", notifications.notifications[0].Message)
	}
}

func TestStartWorkRejectsForeignTicket(t *testing.T) {
	ticket := assignedTicket(uuid.New())
	store := newFakeTicketStore(ticket)
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	err := svc.StartWork(context.Background(), contractorPrincipal(uuid.New()), ticket.ID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSubmitRatingSetOnce(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusResolved
	store := newFakeTicketStore(ticket)
	directory := newFakeDirectoryStore()
	directory.recomputeResult = 4.5
	svc := testTicketService(store, directory, &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	average, err := svc.SubmitRating(context.Background(), ticket.TicketNumber, 5)
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if average != 4.5 {
		t.Fatalf("expected recomputed average 4.5, got %v", average)
	}
	if directory.recomputeCalls != 1 {
		t.Fatalf("expected one recompute, got %d", directory.recomputeCalls)
	}
	if rated := store.tickets[ticket.ID].UserRating; rated == nil || *rated != 5 {
		t.Fatalf("rating not persisted: %v", rated)
	}

	if _, err := svc.SubmitRating(context.Background(), ticket.TicketNumber, 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("second rating: expected ErrConflict, got %v", err)
	}
	if directory.recomputeCalls != 1 {
		t.Fatalf("rejected rating must not recompute, got %d calls", directory.recomputeCalls)
	}
	if rated := store.tickets[ticket.ID].UserRating; rated == nil || *rated != 5 {
		t.Fatalf("rating overwritten: %v", rated)
	}
}

func TestSubmitRatingRequiresResolved(t *testing.T) {
	ticket := assignedTicket(uuid.New())
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	if _, err := svc.SubmitRating(context.Background(), ticket.TicketNumber, 4); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestBulkUpdateStatusSkipsFailures(t *testing.T) {
	a := assignedTicket(uuid.New())
	b := assignedTicket(uuid.New())
	b.TicketNumber = "CMP-20250901-002"
	store := newFakeTicketStore(a, b)
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	updated, err := svc.BulkUpdateStatus(
		context.Background(), adminPrincipal(),
		[]uuid.UUID{a.ID, uuid.New(), b.ID},
		model.TicketStatusResolved,
	)
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}
	for _, ticket := range []*model.Ticket{a, b} {
		if store.tickets[ticket.ID].Status != model.TicketStatusResolved {
			t.Fatalf("ticket %s not resolved", ticket.TicketNumber)
		}
	}
}

func TestBulkAssignSkipsFailures(t *testing.T) {
	directory := newFakeDirectoryStore()
	contractor := &model.Contractor{Name: "Road Crew"}
	if err := directory.CreateContractor(context.Background(), contractor); err != nil {
		t.Fatalf("CreateContractor: %v", err)
	}

	a := assignedTicket(uuid.New())
	a.Status = model.TicketStatusSubmitted
	a.ContractorID = nil
	store := newFakeTicketStore(a)
	svc := testTicketService(store, directory, &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	updated, err := svc.BulkAssign(
		context.Background(), adminPrincipal(),
		[]uuid.UUID{a.ID, uuid.New()},
		&contractor.ID, nil,
	)
	if err != nil {
		t.Fatalf("BulkAssign: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated, got %d", updated)
	}
	got := store.tickets[a.ID]
	if got.ContractorID == nil || *got.ContractorID != contractor.ID {
		t.Fatal("contractor not assigned")
	}
	if got.Status != model.TicketStatusAssigned {
		t.Fatalf("expected ASSIGNED after assignment, got %s", got.Status)
	}
}

func TestSubmitCompletionVerifierOutagePersists(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	images := newFakeImageStore()
	images.files[ticket.Complaint.ImagePath] = []byte("before")
	notifications := &fakeNotificationStore{}
	verifier := &fakeVerifier{err: errors.New("gateway timeout")}
	svc := testTicketService(store, newFakeDirectoryStore(), notifications, verifier, images, false)

	outcome, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: []byte("after"),
		ImageExt:   ".jpg",
		Latitude:   23.0225,
		Longitude:  72.5714,
	})
	if err != nil {
		t.Fatalf("SubmitCompletion: %v", err)
	}
	if outcome.AIVerified {
		t.Fatal("outage must not count as verified")
	}
	if len(store.completions) != 1 {
		t.Fatalf("completion not persisted: %d rows", len(store.completions))
	}
	completion := store.completions[0]
	if completion.AIVerified {
		t.Fatal("completion row marked verified")
	}
	if !strings.Contains(completion.AIMessage, "verification unavailable") {
		t.Fatalf("diagnostic missing from completion row: %q", completion.AIMessage)
	}
	stored := store.tickets[ticket.ID]
	if stored.AIVerified == nil || *stored.AIVerified {
		t.Fatal("ticket verdict should be recorded false")
	}
	if !strings.Contains(stored.AIMessage, "verification unavailable") {
		t.Fatalf("diagnostic missing from ticket: %q", stored.AIMessage)
	}
	if len(notifications.notifications) != 0 {
		t.Fatal("unverified completion must not notify admins")
	}
}

func TestSubmitCompletionVerifiedNotifies(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	images := newFakeImageStore()
	images.files[ticket.Complaint.ImagePath] = []byte("before")
	notifications := &fakeNotificationStore{}
	verifier := &fakeVerifier{result: gateway.VerificationResult{Completed: true, Message: "issue resolved"}}
	svc := testTicketService(store, newFakeDirectoryStore(), notifications, verifier, images, false)

	outcome, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: []byte("after"),
		ImageExt:   ".jpg",
		Latitude:   23.0225,
		Longitude:  72.5714,
	})
	if err != nil {
		t.Fatalf("SubmitCompletion: %v", err)
	}
	if !outcome.AIVerified {
		t.Fatal("expected verified outcome")
	}
	if len(notifications.notifications) != 1 || notifications.notifications[0].Type != model.NotificationTypeAIVerification {
		t.Fatalf("expected AI verification notification, got %+v", notifications.notifications)
	}
	after, err := images.Read(store.completions[0].AfterImagePath)
	if err != nil {
		t.Fatalf("after photo not stored: %v", err)
	}
	if !bytes.Equal(after, []byte("after")) {
		t.Fatal("stored after photo does not match upload")
	}
}

func TestSubmitCompletionDuplicateRaceMapsToConflict(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	store.createCompletionErr = gorm.ErrDuplicatedKey
	images := newFakeImageStore()
	images.files[ticket.Complaint.ImagePath] = []byte("before")
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, images, false)

	_, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: []byte("after"),
		ImageExt:   ".jpg",
		Latitude:   23.0225,
		Longitude:  72.5714,
	})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	if len(images.deleted) != 1 {
		t.Fatalf("orphaned after photo should be removed, deleted=%v", images.deleted)
	}
}

func TestSubmitCompletionStorageFailureRollsBack(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	store.updatesErr = errors.New("disk full")
	images := newFakeImageStore()
	images.files[ticket.Complaint.ImagePath] = []byte("before")
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{result: gateway.VerificationResult{Completed: true}}, images, false)

	_, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: []byte("after"),
		ImageExt:   ".jpg",
		Latitude:   23.0225,
		Longitude:  72.5714,
	})
	if err == nil {
		t.Fatal("expected error from failed update")
	}
	if len(images.deleted) != 1 {
		t.Fatalf("orphaned after photo should be removed, deleted=%v", images.deleted)
	}
}

func TestSubmitCompletionGeofenceEnforced(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	images := newFakeImageStore()
	images.files[ticket.Complaint.ImagePath] = []byte("before")
	verifier := &fakeVerifier{}
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, verifier, images, true)

	// Roughly a kilometer north of the complaint site.
	_, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: []byte("after"),
		ImageExt:   ".jpg",
		Latitude:   23.0315,
		Longitude:  72.5714,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if verifier.calls != 0 {
		t.Fatal("rejected submission must not reach the verifier")
	}
	if len(store.completions) != 0 {
		t.Fatal("rejected submission must not persist")
	}
}

func TestSubmitCompletionRejectsOversizedPhoto(t *testing.T) {
	contractorID := uuid.New()
	ticket := assignedTicket(contractorID)
	ticket.Status = model.TicketStatusInProgress
	store := newFakeTicketStore(ticket)
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	_, err := svc.SubmitCompletion(context.Background(), contractorPrincipal(contractorID), ticket.ID, CompletionInput{
		AfterImage: make([]byte, (5<<20)+1),
		ImageExt:   ".jpg",
		Latitude:   23.0225,
		Longitude:  72.5714,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListScopesContractorTickets(t *testing.T) {
	contractorID := uuid.New()
	mine := assignedTicket(contractorID)
	other := assignedTicket(uuid.New())
	other.TicketNumber = "CMP-20250901-002"
	store := newFakeTicketStore(mine, other)
	svc := testTicketService(store, newFakeDirectoryStore(), &fakeNotificationStore{}, &fakeVerifier{}, newFakeImageStore(), false)

	records, err := svc.List(context.Background(), contractorPrincipal(contractorID), ListTicketsOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Ticket.TicketNumber != mine.TicketNumber {
		t.Fatalf("contractor should only see own tickets, got %+v", records)
	}
}
