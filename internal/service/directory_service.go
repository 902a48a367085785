package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/geo"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type DirectoryService struct {
	repo directoryStore
	log  zerolog.Logger

	mu         sync.RWMutex
	boundaries []wardBoundary
	loaded     bool
	gen        uint64
}

type wardBoundary struct {
	ward     model.Ward
	boundary *geo.Boundary
}

func NewDirectoryService(repo directoryStore, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, log: log}
}

type WardInput struct {
	WardNo    string `json:"ward_no" binding:"required"`
	Name      string `json:"name" binding:"required"`
	AdminName string `json:"admin_name"`
	AdminNo   string `json:"admin_no"`
	Address   string `json:"address"`
	Boundary  []byte `json:"-"`
}

func (s *DirectoryService) CreateWard(ctx context.Context, principal model.Principal, input WardInput) (*model.Ward, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateBoundary(input.Boundary); err != nil {
		return nil, err
	}

	ward := &model.Ward{
		WardNo:    strings.TrimSpace(input.WardNo),
		Name:      strings.TrimSpace(input.Name),
		AdminName: strings.TrimSpace(input.AdminName),
		AdminNo:   strings.TrimSpace(input.AdminNo),
		Address:   strings.TrimSpace(input.Address),
		Boundary:  input.Boundary,
	}
	if err := s.repo.CreateWard(ctx, ward); err != nil {
		return nil, err
	}
	s.invalidateBoundaries()
	return ward, nil
}

func (s *DirectoryService) GetWard(ctx context.Context, id uuid.UUID) (*model.Ward, error) {
	ward, err := s.repo.GetWard(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ward, nil
}

func (s *DirectoryService) ListWards(ctx context.Context) ([]model.Ward, error) {
	return s.repo.ListWards(ctx)
}

func (s *DirectoryService) UpdateWard(ctx context.Context, principal model.Principal, id uuid.UUID, input WardInput) (*model.Ward, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if err := validateBoundary(input.Boundary); err != nil {
		return nil, err
	}

	if _, err := s.GetWard(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"ward_no":    strings.TrimSpace(input.WardNo),
		"name":       strings.TrimSpace(input.Name),
		"admin_name": strings.TrimSpace(input.AdminName),
		"admin_no":   strings.TrimSpace(input.AdminNo),
		"address":    strings.TrimSpace(input.Address),
	}
	if len(input.Boundary) > 0 {
		fields["boundary"] = input.Boundary
	}
	if err := s.repo.UpdateWard(ctx, id, fields); err != nil {
		return nil, err
	}
	s.invalidateBoundaries()
	return s.GetWard(ctx, id)
}

// DeleteWard refuses while contractors or tickets still reference the ward.
func (s *DirectoryService) DeleteWard(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if _, err := s.GetWard(ctx, id); err != nil {
		return err
	}

	contractors, err := s.repo.CountWardContractors(ctx, id)
	if err != nil {
		return err
	}
	if contractors > 0 {
		return fmt.Errorf("%w: %d contractor(s) assigned to this ward", ErrConflict, contractors)
	}
	tickets, err := s.repo.CountWardTickets(ctx, id)
	if err != nil {
		return err
	}
	if tickets > 0 {
		return fmt.Errorf("%w: %d ticket(s) reference this ward", ErrConflict, tickets)
	}

	if err := s.repo.DeleteWard(ctx, id); err != nil {
		return err
	}
	s.invalidateBoundaries()
	return nil
}

// ResolveWard finds the ward whose boundary contains the point, using an
// in-memory copy of the parsed boundaries. Returns nil when no ward matches
// or boundaries cannot be loaded.
func (s *DirectoryService) ResolveWard(ctx context.Context, lat, lon float64) *model.Ward {
	boundaries, err := s.loadBoundaries(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("ward boundaries unavailable")
		return nil
	}
	for i := range boundaries {
		if boundaries[i].boundary.Contains(lat, lon) {
			ward := boundaries[i].ward
			return &ward
		}
	}
	return nil
}

func (s *DirectoryService) loadBoundaries(ctx context.Context) ([]wardBoundary, error) {
	s.mu.RLock()
	if s.loaded {
		cached := s.boundaries
		s.mu.RUnlock()
		return cached, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	wards, err := s.repo.ListWards(ctx)
	if err != nil {
		return nil, err
	}

	boundaries := make([]wardBoundary, 0, len(wards))
	for _, ward := range wards {
		if len(ward.Boundary) == 0 {
			continue
		}
		boundary, err := geo.ParseBoundary(ward.Boundary)
		if err != nil {
			s.log.Warn().Err(err).Str("ward_no", ward.WardNo).Msg("skipping ward with unparseable boundary")
			continue
		}
		boundaries = append(boundaries, wardBoundary{ward: ward, boundary: boundary})
	}

	s.mu.Lock()
	// An invalidation during the read means this snapshot may already be
	// stale; serve it for this call but leave the cache unpopulated.
	if s.gen == gen {
		s.boundaries = boundaries
		s.loaded = true
	}
	s.mu.Unlock()
	return boundaries, nil
}

func (s *DirectoryService) invalidateBoundaries() {
	s.mu.Lock()
	s.gen++
	s.loaded = false
	s.boundaries = nil
	s.mu.Unlock()
}

type ContractorInput struct {
	UserID     uuid.UUID   `json:"user_id" binding:"required"`
	Name       string      `json:"name" binding:"required"`
	Phone      string      `json:"phone"`
	Email      string      `json:"email"`
	Department string      `json:"department" binding:"required"`
	WardIDs    []uuid.UUID `json:"ward_ids"`
}

func (s *DirectoryService) CreateContractor(ctx context.Context, principal model.Principal, input ContractorInput) (*model.Contractor, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	contractor := &model.Contractor{
		UserID:     input.UserID,
		Name:       strings.TrimSpace(input.Name),
		Phone:      strings.TrimSpace(input.Phone),
		Email:      strings.TrimSpace(input.Email),
		Department: model.Department(strings.TrimSpace(input.Department)),
		Active:     true,
	}
	if err := s.repo.CreateContractor(ctx, contractor); err != nil {
		return nil, err
	}
	if len(input.WardIDs) > 0 {
		if err := s.repo.ReplaceContractorWards(ctx, contractor.ID, input.WardIDs); err != nil {
			return nil, err
		}
	}
	return contractor, nil
}

func (s *DirectoryService) GetContractor(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	contractor, err := s.repo.GetContractor(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contractor, nil
}

func (s *DirectoryService) ListContractors(ctx context.Context, filter repository.ContractorFilter) ([]model.Contractor, error) {
	return s.repo.ListContractors(ctx, filter)
}

func (s *DirectoryService) AssignContractorWards(ctx context.Context, principal model.Principal, contractorID uuid.UUID, wardIDs []uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if _, err := s.GetContractor(ctx, contractorID); err != nil {
		return err
	}
	return s.repo.ReplaceContractorWards(ctx, contractorID, wardIDs)
}

func validateBoundary(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if _, err := geo.ParseBoundary(raw); err != nil {
		return fmt.Errorf("%w: boundary: %v", ErrInvalidInput, err)
	}
	return nil
}
