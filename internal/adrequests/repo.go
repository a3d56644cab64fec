package adrequests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Repository is the persistence surface for intake requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, req *models.AdRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdRequest, error)
	Update(ctx context.Context, req *models.AdRequest) error
	List(ctx context.Context, status *enums.AdRequestStatus) ([]models.AdRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an ad request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, req *models.AdRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdRequest, error) {
	var req models.AdRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, req *models.AdRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) List(ctx context.Context, status *enums.AdRequestStatus) ([]models.AdRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.AdRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var reqs []models.AdRequest
	if err := query.
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
