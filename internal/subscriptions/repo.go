package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Repository is the persistence surface for subscription lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error
	ExpireDue(ctx context.Context, asOf time.Time) ([]models.Subscription, error)

	FindPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	FindAdvertiser(ctx context.Context, id uuid.UUID) (*models.Advertiser, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("advertiser_id = ?", advertiserID).
		Order("start_date DESC, created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ExpireDue transitions active subscriptions past their end date to expired
// and returns the affected rows so the caller can refresh coverage.
func (r *repository) ExpireDue(ctx context.Context, asOf time.Time) ([]models.Subscription, error) {
	var due []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.SubscriptionStatusActive).
		Where("end_date < ?", asOf).
		Find(&due).Error; err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, sub := range due {
		ids = append(ids, sub.ID)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id IN ?", ids).
		Update("status", enums.SubscriptionStatusExpired).Error; err != nil {
		return nil, err
	}
	for i := range due {
		due[i].Status = enums.SubscriptionStatusExpired
	}
	return due, nil
}

func (r *repository) FindPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
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

func (r *repository) FindAdvertiser(ctx context.Context, id uuid.UUID) (*models.Advertiser, error) {
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
