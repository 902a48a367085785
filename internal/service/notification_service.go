package service

import (
	"context"

	"github.com/google/uuid"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, unreadOnly bool, limit int) ([]model.Notification, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.repo.List(ctx, unreadOnly, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	affected, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
