package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// Repository is the persistence surface for invoices and their numbering
// counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, inv *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error)
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)

	ClaimNextSequence(ctx context.Context, period string) (int, error)

	FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
}

// ListFilter narrows invoice listing.
type ListFilter struct {
	Status       *enums.InvoiceStatus
	AdvertiserID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).
		Where("number = ?", number).
		First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	var invs []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("issued_date DESC, created_at DESC").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AdvertiserID != nil {
		query = query.Where(
			"subscription_id IN (?)",
			r.db.Model(&models.Subscription{}).Select("id").Where("advertiser_id = ?", *filter.AdvertiserID),
		)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var invs []models.Invoice
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// MarkOverdue flips unpaid and partial invoices whose due date has passed.
// Settled and cancelled invoices are never touched.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status IN ?", []enums.InvoiceStatus{enums.InvoiceStatusUnpaid, enums.InvoiceStatusPartial}).
		Where("due_date < ?", asOf).
		Update("status", enums.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}

// ClaimNextSequence bumps the per-period counter and returns the claimed
// sequence. The upsert-then-update pair runs on the caller's transaction so
// the row lock taken by the UPDATE serializes concurrent allocations.
func (r *repository) ClaimNextSequence(ctx context.Context, period string) (int, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period"}},
			DoNothing: true,
		}).
		Create(&models.InvoiceCounter{Period: period, NextSeq: 1}).Error; err != nil {
		return 0, err
	}

	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceCounter{}).
		Where("period = ?", period).
		Update("next_seq", gorm.Expr("next_seq + 1")).Error; err != nil {
		return 0, err
	}

	var counter models.InvoiceCounter
	if err := r.db.WithContext(ctx).
		Where("period = ?", period).
		First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.NextSeq - 1, nil
}

func (r *repository) FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
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
