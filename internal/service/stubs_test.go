package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/gateway"
	"complaint-service/internal/geocode"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// In-memory stand-ins for the gorm repositories. They honor the same nil-tx
// convention and let the service tests run without a database.

type fakeTicketStore struct {
	tickets             map[uuid.UUID]*model.Ticket
	completions         []*model.TicketCompletion
	notes               []*model.TicketNote
	counter             int
	createCompletionErr error
	updatesErr          error
}

func newFakeTicketStore(tickets ...*model.Ticket) *fakeTicketStore {
	s := &fakeTicketStore{tickets: map[uuid.UUID]*model.Ticket{}}
	for _, t := range tickets {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		s.tickets[t.ID] = t
	}
	return s
}

func (s *fakeTicketStore) List(ctx context.Context, filter repository.TicketFilter) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range s.tickets {
		if filter.ContractorID != nil {
			if t.ContractorID == nil || *t.ContractorID != *filter.ContractorID {
				continue
			}
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeTicketStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTicketStore) GetByNumber(ctx context.Context, number string) (*model.Ticket, error) {
	for _, t := range s.tickets {
		if t.TicketNumber == number {
			copied := *t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeTicketStore) Create(ctx context.Context, tx *gorm.DB, ticket *model.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (s *fakeTicketStore) Updates(ctx context.Context, tx *gorm.DB, ticketID uuid.UUID, fields map[string]interface{}) error {
	if s.updatesErr != nil {
		return s.updatesErr
	}
	t, ok := s.tickets[ticketID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "status":
			t.Status = value.(model.TicketStatus)
		case "resolved_at":
			ts := value.(time.Time)
			t.ResolvedAt = &ts
		case "user_rating":
			r := value.(int)
			t.UserRating = &r
		case "contractor_id":
			id := value.(uuid.UUID)
			t.ContractorID = &id
		case "ward_id":
			id := value.(uuid.UUID)
			t.WardID = &id
		case "ai_verified":
			b := value.(bool)
			t.AIVerified = &b
		case "ai_verification_message":
			t.AIMessage = value.(string)
		}
	}
	return nil
}

func (s *fakeTicketStore) AddNote(ctx context.Context, tx *gorm.DB, note *model.TicketNote) error {
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeTicketStore) CreateCompletion(ctx context.Context, tx *gorm.DB, completion *model.TicketCompletion) error {
	if s.createCompletionErr != nil {
		return s.createCompletionErr
	}
	s.completions = append(s.completions, completion)
	return nil
}

func (s *fakeTicketStore) HasCompletion(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	for _, c := range s.completions {
		if c.TicketID == ticketID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTicketStore) NextTicketNumber(ctx context.Context, tx *gorm.DB, day time.Time) (string, error) {
	s.counter++
	return repository.FormatTicketNumber(day, s.counter), nil
}

func (s *fakeTicketStore) CountsByStatus(ctx context.Context) (map[model.TicketStatus]int64, error) {
	counts := map[model.TicketStatus]int64{}
	for _, t := range s.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *fakeTicketStore) CountsByDepartment(ctx context.Context) ([]model.DepartmentCounts, error) {
	return nil, nil
}

func (s *fakeTicketStore) ListResolvedWithWard(ctx context.Context, limit int) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.Status == model.TicketStatusResolved {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeTicketStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeComplaintStore struct {
	complaints map[uuid.UUID]*model.Complaint
}

func newFakeComplaintStore(complaints ...*model.Complaint) *fakeComplaintStore {
	s := &fakeComplaintStore{complaints: map[uuid.UUID]*model.Complaint{}}
	for _, c := range complaints {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		s.complaints[c.ID] = c
	}
	return s
}

func (s *fakeComplaintStore) Create(ctx context.Context, complaint *model.Complaint) error {
	if complaint.ID == uuid.Nil {
		complaint.ID = uuid.New()
	}
	copied := *complaint
	s.complaints[complaint.ID] = &copied
	return nil
}

func (s *fakeComplaintStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	c, ok := s.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *fakeComplaintStore) Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	c, ok := s.complaints[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "validity":
			c.Validity = value.(model.ComplaintValidity)
		case "submitted":
			c.Submitted = value.(bool)
		}
	}
	return nil
}

func (s *fakeComplaintStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.complaints, id)
	return nil
}

func (s *fakeComplaintStore) ListDrafts(ctx context.Context, cutoff time.Time) ([]model.Complaint, error) {
	var out []model.Complaint
	for _, c := range s.complaints {
		if !c.Submitted && !c.CreatedAt.After(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeDirectoryStore struct {
	wards           map[uuid.UUID]*model.Ward
	contractors     map[uuid.UUID]*model.Contractor
	wardList        []model.Ward
	listWardCalls   int
	onListWards     func()
	wardContractors map[uuid.UUID]int64
	wardTickets     map[uuid.UUID]int64
	recomputeResult float64
	recomputeCalls  int
}

func newFakeDirectoryStore() *fakeDirectoryStore {
	return &fakeDirectoryStore{
		wards:           map[uuid.UUID]*model.Ward{},
		contractors:     map[uuid.UUID]*model.Contractor{},
		wardContractors: map[uuid.UUID]int64{},
		wardTickets:     map[uuid.UUID]int64{},
	}
}

func (s *fakeDirectoryStore) CreateWard(ctx context.Context, ward *model.Ward) error {
	if ward.ID == uuid.Nil {
		ward.ID = uuid.New()
	}
	copied := *ward
	s.wards[ward.ID] = &copied
	s.wardList = append(s.wardList, copied)
	return nil
}

func (s *fakeDirectoryStore) GetWard(ctx context.Context, id uuid.UUID) (*model.Ward, error) {
	w, ok := s.wards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *w
	return &copied, nil
}

func (s *fakeDirectoryStore) ListWards(ctx context.Context) ([]model.Ward, error) {
	s.listWardCalls++
	wards := append([]model.Ward(nil), s.wardList...)
	if s.onListWards != nil {
		s.onListWards()
	}
	return wards, nil
}

func (s *fakeDirectoryStore) UpdateWard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if _, ok := s.wards[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *fakeDirectoryStore) DeleteWard(ctx context.Context, id uuid.UUID) error {
	delete(s.wards, id)
	kept := s.wardList[:0]
	for _, w := range s.wardList {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.wardList = kept
	return nil
}

func (s *fakeDirectoryStore) CountWardContractors(ctx context.Context, wardID uuid.UUID) (int64, error) {
	return s.wardContractors[wardID], nil
}

func (s *fakeDirectoryStore) CountWardTickets(ctx context.Context, wardID uuid.UUID) (int64, error) {
	return s.wardTickets[wardID], nil
}

func (s *fakeDirectoryStore) CreateContractor(ctx context.Context, contractor *model.Contractor) error {
	if contractor.ID == uuid.Nil {
		contractor.ID = uuid.New()
	}
	copied := *contractor
	s.contractors[contractor.ID] = &copied
	return nil
}

func (s *fakeDirectoryStore) GetContractor(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	c, ok := s.contractors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *fakeDirectoryStore) ListContractors(ctx context.Context, filter repository.ContractorFilter) ([]model.Contractor, error) {
	var out []model.Contractor
	for _, c := range s.contractors {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeDirectoryStore) ReplaceContractorWards(ctx context.Context, contractorID uuid.UUID, wardIDs []uuid.UUID) error {
	return nil
}

func (s *fakeDirectoryStore) RecomputeContractorRating(ctx context.Context, tx *gorm.DB, contractorID uuid.UUID) (float64, error) {
	s.recomputeCalls++
	return s.recomputeResult, nil
}

type fakeNotificationStore struct {
	notifications []*model.Notification
}

func (s *fakeNotificationStore) Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error {
	s.notifications = append(s.notifications, notification)
	return nil
}

type fakeImageStore struct {
	files   map[string][]byte
	saves   int
	saveErr error
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{files: map[string][]byte{}}
}

func (s *fakeImageStore) SaveComplaintImage(sessionID uuid.UUID, ext string, data []byte) (string, error) {
	return s.save("complaints", ext, data)
}

func (s *fakeImageStore) SaveCompletionImage(ticketID uuid.UUID, ext string, data []byte) (string, error) {
	return s.save("completions", ext, data)
}

func (s *fakeImageStore) save(kind, ext string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saves++
	path := fmt.Sprintf("%s/%d%s", kind, s.saves, ext)
	s.files[path] = data
	return path, nil
}

func (s *fakeImageStore) Read(rel string) ([]byte, error) {
	data, ok := s.files[rel]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (s *fakeImageStore) Delete(rel string) error {
	s.deleted = append(s.deleted, rel)
	delete(s.files, rel)
	return nil
}

type fakeClassifier struct {
	replies []classifierReply
	calls   int
}

type classifierReply struct {
	result gateway.ClassificationResult
	err    error
}

func (c *fakeClassifier) AnalyzeComplaint(ctx context.Context, req gateway.AnalyzeRequest) (gateway.ClassificationResult, error) {
	idx := c.calls
	if idx >= len(c.replies) {
		idx = len(c.replies) - 1
	}
	c.calls++
	reply := c.replies[idx]
	return reply.result, reply.err
}

type fakeVerifier struct {
	result gateway.VerificationResult
	err    error
	calls  int
}

func (v *fakeVerifier) VerifyCompletion(ctx context.Context, req gateway.VerifyRequest) (gateway.VerificationResult, error) {
	v.calls++
	return v.result, v.err
}

type fakeWardResolver struct {
	ward *model.Ward
}

func (r *fakeWardResolver) ResolveWard(ctx context.Context, lat, lon float64) *model.Ward {
	return r.ward
}

type fakeGeocoder struct {
	addr  *geocode.Address
	err   error
	calls int
}

func (g *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Address, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.addr, nil
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin}
}

func contractorPrincipal(contractorID uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.UserRoleContractor, ContractorID: &contractorID}
}

func testTicketService(ts *fakeTicketStore, ds *fakeDirectoryStore, ns *fakeNotificationStore, verifier gateway.Verifier, images *fakeImageStore, enforced bool) *TicketService {
	return NewTicketService(ts, ds, ns, verifier, nil, images, 50, enforced, 5<<20, zerolog.Nop())
}

func testComplaintService(cs *fakeComplaintStore, ts *fakeTicketStore, resolver wardResolver, geocoder geocode.Geocoder, classifier gateway.Classifier, images *fakeImageStore) *ComplaintService {
	return NewComplaintService(cs, ts, resolver, geocoder, classifier, nil, images, 5<<20, zerolog.Nop())
}
