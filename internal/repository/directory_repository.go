package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) CreateWard(ctx context.Context, ward *model.Ward) error {
	return r.db.WithContext(ctx).Create(ward).Error
}

func (r *DirectoryRepository) GetWard(ctx context.Context, id uuid.UUID) (*model.Ward, error) {
	var ward model.Ward
	if err := r.db.WithContext(ctx).First(&ward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ward, nil
}

func (r *DirectoryRepository) ListWards(ctx context.Context) ([]model.Ward, error) {
	var wards []model.Ward
	err := r.db.WithContext(ctx).Order("ward_no ASC").Find(&wards).Error
	return wards, err
}

func (r *DirectoryRepository) UpdateWard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Ward{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *DirectoryRepository) DeleteWard(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Ward{}, "id = ?", id).Error
}

// CountWardContractors counts contractors still linked to the ward through
// the many-to-many relation. Used to block ward deletion.
func (r *DirectoryRepository) CountWardContractors(ctx context.Context, wardID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("ward_contractors").
		Where("ward_id = ?", wardID).
		Count(&count).Error
	return count, err
}

func (r *DirectoryRepository) CountWardTickets(ctx context.Context, wardID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("ward_id = ?", wardID).
		Count(&count).Error
	return count, err
}

func (r *DirectoryRepository) CreateContractor(ctx context.Context, contractor *model.Contractor) error {
	return r.db.WithContext(ctx).Create(contractor).Error
}

func (r *DirectoryRepository) GetContractor(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	var contractor model.Contractor
	if err := r.db.WithContext(ctx).First(&contractor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contractor, nil
}

type ContractorFilter struct {
	WardID     *uuid.UUID
	Department *model.Department
	ActiveOnly bool
}

func (r *DirectoryRepository) ListContractors(ctx context.Context, filter ContractorFilter) ([]model.Contractor, error) {
	query := r.db.WithContext(ctx).Model(&model.Contractor{})

	if filter.WardID != nil {
		query = query.
			Joins("JOIN ward_contractors wc ON wc.contractor_id = contractors.id").
			Where("wc.ward_id = ?", *filter.WardID)
	}
	if filter.Department != nil {
		query = query.Where("contractors.department = ?", *filter.Department)
	}
	if filter.ActiveOnly {
		query = query.Where("contractors.active")
	}

	var contractors []model.Contractor
	err := query.Order("contractors.rating DESC, contractors.name ASC").Find(&contractors).Error
	return contractors, err
}

// ReplaceContractorWards rewrites the contractor's serviced-ward set.
func (r *DirectoryRepository) ReplaceContractorWards(ctx context.Context, contractorID uuid.UUID, wardIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM ward_contractors WHERE contractor_id = ?", contractorID).Error; err != nil {
			return err
		}
		for _, wardID := range wardIDs {
			if err := tx.Exec(
				"INSERT INTO ward_contractors (ward_id, contractor_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				wardID, contractorID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecomputeContractorRating recalculates the rolling average from every rated
// ticket ever assigned to the contractor. Aggregating the full current set
// keeps the operation idempotent under concurrent rating submissions.
func (r *DirectoryRepository) RecomputeContractorRating(ctx context.Context, tx *gorm.DB, contractorID uuid.UUID) (float64, error) {
	if tx == nil {
		tx = r.db
	}
	var avg *float64
	err := tx.WithContext(ctx).
		Model(&model.Ticket{}).
		Select("AVG(user_rating)").
		Where("contractor_id = ? AND user_rating IS NOT NULL", contractorID).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}

	rating := 0.0
	if avg != nil {
		rating = *avg
	}
	err = tx.WithContext(ctx).
		Model(&model.Contractor{}).
		Where("id = ?", contractorID).
		Update("rating", rating).Error
	return rating, err
}
