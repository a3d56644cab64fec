package directory

import (
	"context"

	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Repository loads the directory's candidate advertisers.
type Repository interface {
	ListActive(ctx context.Context, sector *enums.Sector) ([]models.Advertiser, error)
	ListActivePlans(ctx context.Context) ([]models.Plan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ListActive narrows by status and sector in SQL; the per-city coverage
// predicate is applied in the service so the query stays portable across the
// postgres and sqlite modes.
func (r *repository) ListActive(ctx context.Context, sector *enums.Sector) ([]models.Advertiser, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.AdvertiserStatusActive)
	if sector != nil {
		query = query.Where("sector = ?", *sector)
	}

	var advs []models.Advertiser
	if err := query.
		Order("company_name ASC").
		Find(&advs).Error; err != nil {
		return nil, err
	}
	return advs, nil
}

func (r *repository) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sector ASC, coverage_scope ASC, duration_days ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
