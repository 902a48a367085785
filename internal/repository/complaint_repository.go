package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepository) Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.Complaint{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ComplaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Complaint{}, "id = ?", id).Error
}

// ListDrafts returns unsubmitted complaints captured at or before the cutoff.
func (r *ComplaintRepository) ListDrafts(ctx context.Context, cutoff time.Time) ([]model.Complaint, error) {
	var drafts []model.Complaint
	err := r.db.WithContext(ctx).
		Where("submitted = FALSE AND created_at <= ?", cutoff).
		Find(&drafts).Error
	return drafts, err
}
