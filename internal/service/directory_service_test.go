package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/model"
)

var squareBoundary = []byte(`{
	"type": "Polygon",
	"coordinates": [[[72.50, 23.00], [72.60, 23.00], [72.60, 23.10], [72.50, 23.10], [72.50, 23.00]]]
}`)

var northBoundary = []byte(`{
	"type": "Polygon",
	"coordinates": [[[72.50, 23.10], [72.60, 23.10], [72.60, 23.20], [72.50, 23.20], [72.50, 23.10]]]
}`)

func TestResolveWardCachesBoundaries(t *testing.T) {
	directory := newFakeDirectoryStore()
	ward := &model.Ward{WardNo: "12", Name: "Satellite", Boundary: squareBoundary}
	if err := directory.CreateWard(context.Background(), ward); err != nil {
		t.Fatalf("CreateWard: %v", err)
	}
	svc := NewDirectoryService(directory, zerolog.Nop())

	resolved := svc.ResolveWard(context.Background(), 23.05, 72.55)
	if resolved == nil || resolved.WardNo != "12" {
		t.Fatalf("expected ward 12, got %+v", resolved)
	}
	if svc.ResolveWard(context.Background(), 23.05, 72.55) == nil {
		t.Fatal("second resolve failed")
	}
	if directory.listWardCalls != 1 {
		t.Fatalf("expected one ward load, got %d", directory.listWardCalls)
	}

	if svc.ResolveWard(context.Background(), 23.50, 72.55) != nil {
		t.Fatal("point outside every boundary must resolve to nil")
	}
}

func TestWardMutationInvalidatesBoundaryCache(t *testing.T) {
	directory := newFakeDirectoryStore()
	ward := &model.Ward{WardNo: "12", Name: "Satellite", Boundary: squareBoundary}
	if err := directory.CreateWard(context.Background(), ward); err != nil {
		t.Fatalf("CreateWard: %v", err)
	}
	svc := NewDirectoryService(directory, zerolog.Nop())

	if svc.ResolveWard(context.Background(), 23.05, 72.55) == nil {
		t.Fatal("expected a match before the mutation")
	}

	northern := &model.Ward{WardNo: "13", Name: "Northern", Boundary: northBoundary}
	if _, err := svc.CreateWard(context.Background(), adminPrincipal(), WardInput{
		WardNo:   northern.WardNo,
		Name:     northern.Name,
		Boundary: northern.Boundary,
	}); err != nil {
		t.Fatalf("CreateWard: %v", err)
	}

	resolved := svc.ResolveWard(context.Background(), 23.15, 72.55)
	if resolved == nil || resolved.WardNo != "13" {
		t.Fatalf("cache not refreshed after ward creation, got %+v", resolved)
	}
}

func TestBoundaryLoadDiscardsStaleSnapshot(t *testing.T) {
	directory := newFakeDirectoryStore()
	ward := &model.Ward{WardNo: "12", Name: "Satellite", Boundary: squareBoundary}
	if err := directory.CreateWard(context.Background(), ward); err != nil {
		t.Fatalf("CreateWard: %v", err)
	}
	svc := NewDirectoryService(directory, zerolog.Nop())

	// A ward write lands while the first load is reading the directory. The
	// snapshot from that load must not be published as the cache.
	calls := 0
	directory.onListWards = func() {
		calls++
		if calls == 1 {
			directory.wardList = append(directory.wardList, model.Ward{
				ID: uuid.New(), WardNo: "13", Name: "Northern", Boundary: northBoundary,
			})
			svc.invalidateBoundaries()
		}
	}

	if svc.ResolveWard(context.Background(), 23.05, 72.55) == nil {
		t.Fatal("first resolve should still serve its own snapshot")
	}

	resolved := svc.ResolveWard(context.Background(), 23.15, 72.55)
	if resolved == nil || resolved.WardNo != "13" {
		t.Fatalf("stale snapshot was cached, got %+v", resolved)
	}
	if directory.listWardCalls != 2 {
		t.Fatalf("expected a reload after mid-load invalidation, got %d loads", directory.listWardCalls)
	}
}

func TestDeleteWardBlockedByReferences(t *testing.T) {
	directory := newFakeDirectoryStore()
	ward := &model.Ward{WardNo: "12", Name: "Satellite"}
	if err := directory.CreateWard(context.Background(), ward); err != nil {
		t.Fatalf("CreateWard: %v", err)
	}
	directory.wardContractors[ward.ID] = 2
	svc := NewDirectoryService(directory, zerolog.Nop())

	err := svc.DeleteWard(context.Background(), adminPrincipal(), ward.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	directory.wardContractors[ward.ID] = 0
	directory.wardTickets[ward.ID] = 1
	if err := svc.DeleteWard(context.Background(), adminPrincipal(), ward.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for referenced tickets, got %v", err)
	}

	directory.wardTickets[ward.ID] = 0
	if err := svc.DeleteWard(context.Background(), adminPrincipal(), ward.ID); err != nil {
		t.Fatalf("DeleteWard: %v", err)
	}
	if _, err := svc.GetWard(context.Background(), ward.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
