package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// nowFn is swapped in tests to pin default payment dates.
var nowFn = func() time.Time { return time.Now().UTC() }

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TxReconciler re-derives financial state inside the caller's transaction,
// so the ledger write and the correction commit together.
type TxReconciler interface {
	ReconcileSubscriptionTx(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID) (billing.ReconcileOutcome, error)
}

// RecordInput captures an incoming payment.
type RecordInput struct {
	SubscriptionID uuid.UUID
	InvoiceID      *uuid.UUID
	Amount         decimal.Decimal
	PaymentDate    time.Time
	Method         enums.PaymentMethod
	Notes          string
}

// Service owns the payment ledger. Payments are immutable; the only
// mutation is the admin-exception delete, and both paths re-reconcile the
// subscription in the same transaction.
type Service struct {
	repo  Repository
	tx    TxRunner
	recon TxReconciler
	logg  *logger.Logger
}

// NewService wires the payment service.
func NewService(repo Repository, tx TxRunner, recon TxReconciler, logg *logger.Logger) *Service {
	return &Service{repo: repo, tx: tx, recon: recon, logg: logg}
}

// Record appends a payment to the ledger and reconciles the subscription and
// its canonical invoice atomically with the insert.
func (s *Service) Record(ctx context.Context, input RecordInput) (*models.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"method": input.Method})
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = nowFn()
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: input.SubscriptionID,
		InvoiceID:      input.InvoiceID,
		Amount:         input.Amount.Round(2),
		PaymentDate:    paymentDate,
		Method:         input.Method,
		Notes:          input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindSubscription(ctx, input.SubscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found").
				WithDetails(map[string]any{"subscription_id": input.SubscriptionID})
		}
		if sub.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot record a payment on a cancelled subscription")
		}

		if input.InvoiceID != nil {
			inv, err := repo.FindInvoice(ctx, *input.InvoiceID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
			}
			if inv == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found").
					WithDetails(map[string]any{"invoice_id": *input.InvoiceID})
			}
			if inv.SubscriptionID != input.SubscriptionID {
				return pkgerrors.New(pkgerrors.CodeValidation, "invoice does not belong to the subscription")
			}
		}

		if err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment")
		}

		_, err = s.recon.ReconcileSubscriptionTx(ctx, tx, input.SubscriptionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_id":      payment.ID.String(),
		"subscription_id": payment.SubscriptionID.String(),
		"amount":          payment.Amount.StringFixed(2),
		"method":          payment.Method.String(),
	}), "payment recorded")
	return payment, nil
}

// Delete removes a ledger row. This is the admin exception to payment
// immutability (mistyped amount, wrong subscription); the subscription is
// re-reconciled in the same transaction so the stored financials follow.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var subscriptionID uuid.UUID

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found").
				WithDetails(map[string]any{"payment_id": id})
		}
		subscriptionID = payment.SubscriptionID

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting payment")
		}

		_, err = s.recon.ReconcileSubscriptionTx(ctx, tx, subscriptionID)
		return err
	})
	if err != nil {
		return err
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"payment_id":      id.String(),
		"subscription_id": subscriptionID.String(),
	}), "payment deleted by admin exception")
	return nil
}

// ListBySubscription returns a subscription's ledger in payment order.
func (s *Service) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payments")
	}
	return payments, nil
}
