package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, tx *gorm.DB, notification *model.Notification) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{})
	if unreadOnly {
		query = query.Where("read = FALSE")
	}
	if limit <= 0 {
		limit = 100
	}

	var notifications []model.Notification
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("Ticket").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("read", true)
	return result.RowsAffected, result.Error
}
