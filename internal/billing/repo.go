package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Repository is the persistence surface the reconciliation service needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListSubscriptionIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
	UpdateSubscriptionFinancials(ctx context.Context, sub *models.Subscription) error

	ListPaymentsBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)

	FindCanonicalInvoice(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error)
	CountTrackedInvoices(ctx context.Context, subscriptionID uuid.UUID) (int64, error)
	UpdateInvoiceFinancials(ctx context.Context, inv *models.Invoice) error

	PlanExists(ctx context.Context, id uuid.UUID) (bool, error)
	AdvertiserExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateReconciliationLogs(ctx context.Context, logs []models.ReconciliationLog) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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

func (r *repository) ListSubscriptionIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateSubscriptionFinancials persists only the reconciliation targets so a
// concurrent admin edit to dates or discount is not clobbered.
func (r *repository) UpdateSubscriptionFinancials(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"paid_amount":      sub.PaidAmount,
			"remaining_amount": sub.RemainingAmount,
			"payment_status":   sub.PaymentStatus,
		}).Error
}

func (r *repository) ListPaymentsBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindCanonicalInvoice returns the newest non-cancelled invoice for the
// subscription. Extra tracked invoices are a data-quality anomaly surfaced by
// the audit, not merged here.
func (r *repository) FindCanonicalInvoice(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND status <> ?", subscriptionID, enums.InvoiceStatusCancelled).
		Order("issued_date DESC, created_at DESC").
		First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) CountTrackedInvoices(ctx context.Context, subscriptionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("subscription_id = ? AND status <> ?", subscriptionID, enums.InvoiceStatusCancelled).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateInvoiceFinancials(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]any{
			"paid_amount": inv.PaidAmount,
			"status":      inv.Status,
			"paid_date":   inv.PaidDate,
		}).Error
}

func (r *repository) PlanExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Plan{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) AdvertiserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Advertiser{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateReconciliationLogs(ctx context.Context, logs []models.ReconciliationLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}
