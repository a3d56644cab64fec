package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// nowFn is swapped in tests to pin issue dates.
var nowFn = func() time.Time { return time.Now().UTC() }

var oneHundred = decimal.NewFromInt(100)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ListResult is a page of invoices with the cursor for the next page.
type ListResult struct {
	Invoices   []models.Invoice
	NextCursor string
}

// Service owns invoice issuance, numbering and lifecycle.
type Service struct {
	repo Repository
	tx   TxRunner
	logg *logger.Logger
	cfg  config.BillingConfig
}

// NewService wires the invoice service.
func NewService(repo Repository, tx TxRunner, logg *logger.Logger, cfg config.BillingConfig) *Service {
	if cfg.NumberingAttempts <= 0 {
		cfg.NumberingAttempts = 5
	}
	if cfg.InvoiceDueDays <= 0 {
		cfg.InvoiceDueDays = 7
	}
	return &Service{repo: repo, tx: tx, logg: logg, cfg: cfg}
}

// CreateForSubscription issues a VAT-inclusive invoice over the
// subscription's current total. The number allocation and the insert share a
// transaction; a unique-violation on the number index re-runs the whole
// allocation with a fresh sequence, bounded by the configured attempts.
func (s *Service) CreateForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error) {
	sub, err := s.repo.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found").
			WithDetails(map[string]any{"subscription_id": subscriptionID})
	}
	if sub.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot invoice a cancelled subscription")
	}

	issuedAt := nowFn()
	subtotal := sub.TotalAmount
	vatPercent := decimal.NewFromFloat(s.cfg.VATPercent)
	vatAmount := subtotal.Mul(vatPercent).Div(oneHundred).Round(2)

	inv := &models.Invoice{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		Subtotal:       subtotal,
		VATPercent:     vatPercent,
		VATAmount:      vatAmount,
		TotalAmount:    subtotal.Add(vatAmount).Round(2),
		PaidAmount:     decimal.Zero,
		Status:         enums.InvoiceStatusUnpaid,
		IssuedDate:     issuedAt,
		DueDate:        issuedAt.AddDate(0, 0, s.cfg.InvoiceDueDays),
	}

	period := PeriodFor(issuedAt)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.NumberingAttempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			seq, err := repo.ClaimNextSequence(ctx, period)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming invoice sequence")
			}
			inv.Number = FormatNumber(period, seq)
			return repo.Create(ctx, inv)
		})
		if err == nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"invoice_id":     inv.ID.String(),
				"invoice_number": inv.Number,
				"total":          inv.TotalAmount.StringFixed(2),
			}), "invoice issued")
			return inv, nil
		}
		lastErr = err
		if !pkgerrors.IsUniqueViolation(err, "idx_invoices_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating invoice")
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"invoice_number": inv.Number,
			"attempt":        attempt,
		}), "invoice number collision, retrying allocation")
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "invoice numbering exhausted retries")
}

// Get returns an invoice by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}
	if inv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found").
			WithDetails(map[string]any{"invoice_id": id})
	}
	return inv, nil
}

// GetByNumber returns an invoice by its display number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	inv, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}
	if inv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found").
			WithDetails(map[string]any{"number": number})
	}
	return inv, nil
}

// ListBySubscription returns every invoice of a subscription, newest first.
func (s *Service) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	invs, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing invoices")
	}
	return invs, nil
}

// List returns a cursor page of invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) (ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	invs, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing invoices")
	}

	result := ListResult{Invoices: invs}
	if len(invs) > limit {
		result.Invoices = invs[:limit]
		last := result.Invoices[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Cancel voids an invoice. Paid invoices cannot be cancelled; issue a
// compensating payment correction instead.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "paid invoices cannot be cancelled")
	}
	if inv.Status == enums.InvoiceStatusCancelled {
		return inv, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.InvoiceStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling invoice")
	}
	inv.Status = enums.InvoiceStatusCancelled
	s.logg.Info(s.logg.WithField(ctx, "invoice_id", id.String()), "invoice cancelled")
	return inv, nil
}

// MarkOverdue flips every unpaid or partial invoice whose due date passed.
// Returns the number of invoices transitioned.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking overdue invoices")
	}
	if count > 0 {
		s.logg.Info(s.logg.WithField(ctx, "count", count), "invoices marked overdue")
	}
	return count, nil
}
