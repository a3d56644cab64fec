package plans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
)

// Repository is the persistence surface for the plan catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Update(ctx context.Context, plan *models.Plan) error
	List(ctx context.Context, includeInactive bool) ([]models.Plan, error)
	HasSubscriptions(ctx context.Context, planID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) Update(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *repository) List(ctx context.Context, includeInactive bool) ([]models.Plan, error) {
	query := r.db.WithContext(ctx).Model(&models.Plan{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var plans []models.Plan
	if err := query.
		Order("sector ASC, coverage_scope ASC, duration_days ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) HasSubscriptions(ctx context.Context, planID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("plan_id = ?", planID).
		Count(&count).Error
	return count > 0, err
}
