package advertisers

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// Repository is the persistence surface for advertisers and the coverage
// aggregator's inputs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, adv *models.Advertiser) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Advertiser, error)
	Update(ctx context.Context, adv *models.Advertiser) error
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Advertiser, error)
	ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)

	ListSubscriptions(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error)
	UpdateCoverage(ctx context.Context, id uuid.UUID, scope enums.CoverageScope, cities []string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdvertiserStatus) error
}

// ListFilter narrows advertiser listing.
type ListFilter struct {
	Sector *enums.Sector
	Status *enums.AdvertiserStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an advertiser repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, adv *models.Advertiser) error {
	return r.db.WithContext(ctx).Create(adv).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Advertiser, error) {
	var adv models.Advertiser
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&adv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &adv, nil
}

func (r *repository) Update(ctx context.Context, adv *models.Advertiser) error {
	return r.db.WithContext(ctx).Save(adv).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Advertiser, error) {
	query := r.db.WithContext(ctx).Model(&models.Advertiser{})

	if filter.Sector != nil {
		query = query.Where("sector = ?", *filter.Sector)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var advs []models.Advertiser
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&advs).Error; err != nil {
		return nil, err
	}
	return advs, nil
}

func (r *repository) ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Advertiser{}).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListSubscriptions(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("advertiser_id = ?", advertiserID).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) UpdateCoverage(ctx context.Context, id uuid.UUID, scope enums.CoverageScope, cities []string) error {
	return r.db.WithContext(ctx).
		Model(&models.Advertiser{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"coverage_type":   scope,
			"coverage_cities": pq.StringArray(cities),
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdvertiserStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Advertiser{}).
		Where("id = ?", id).
		Update("status", status).Error
}
