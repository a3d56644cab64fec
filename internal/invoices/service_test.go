package invoices

import (
	"context"
	"fmt"
	"io"
	"testing"
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

type stubRepo struct {
	subscriptions map[uuid.UUID]*models.Subscription
	invoices      map[uuid.UUID]*models.Invoice
	nextSeq       int
	statusUpdates map[uuid.UUID]enums.InvoiceStatus
	overdueCount  int64

	// createErrs is consumed per Create call to simulate collisions.
	createErrs []error
	created    []*models.Invoice
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		subscriptions: map[uuid.UUID]*models.Subscription{},
		invoices:      map[uuid.UUID]*models.Invoice{},
		statusUpdates: map[uuid.UUID]enums.InvoiceStatus{},
		nextSeq:       1,
	}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, inv *models.Invoice) error {
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	clone := *inv
	r.created = append(r.created, &clone)
	r.invoices[inv.ID] = &clone
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	clone := *inv
	return &clone, nil
}

func (r *stubRepo) FindByNumber(_ context.Context, number string) (*models.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListBySubscription(_ context.Context, subID uuid.UUID) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range r.invoices {
		if inv.SubscriptionID == subID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *stubRepo) List(_ context.Context, _ ListFilter, limit int, _ *pagination.Cursor) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.InvoiceStatus) error {
	r.statusUpdates[id] = status
	if inv, ok := r.invoices[id]; ok {
		inv.Status = status
	}
	return nil
}

func (r *stubRepo) MarkOverdue(_ context.Context, _ time.Time) (int64, error) {
	return r.overdueCount, nil
}

func (r *stubRepo) ClaimNextSequence(_ context.Context, _ string) (int, error) {
	seq := r.nextSeq
	r.nextSeq++
	return seq, nil
}

func (r *stubRepo) FindSubscription(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, ok := r.subscriptions[id]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func testService(repo *stubRepo) *Service {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, stubTx{}, logg, config.BillingConfig{
		VATPercent:        15,
		InvoiceDueDays:    7,
		NumberingAttempts: 3,
	})
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func seedSubscription(repo *stubRepo, total decimal.Decimal) *models.Subscription {
	sub := &models.Subscription{
		ID:          uuid.New(),
		TotalAmount: total,
		Status:      enums.SubscriptionStatusActive,
	}
	repo.subscriptions[sub.ID] = sub
	return sub
}

func TestCreateForSubscriptionComputesVATAndNumber(t *testing.T) {
	restore := nowFn
	nowFn = func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) }
	defer func() { nowFn = restore }()

	repo := newStubRepo()
	sub := seedSubscription(repo, dec(t, "1400.00"))

	inv, err := testService(repo).CreateForSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inv.Number != "INV-202608-0001" {
		t.Errorf("number = %s, want INV-202608-0001", inv.Number)
	}
	if got := inv.VATAmount.StringFixed(2); got != "210.00" {
		t.Errorf("vat = %s, want 210.00", got)
	}
	if got := inv.TotalAmount.StringFixed(2); got != "1610.00" {
		t.Errorf("total = %s, want 1610.00", got)
	}
	if inv.Status != enums.InvoiceStatusUnpaid {
		t.Errorf("status = %s, want unpaid", inv.Status)
	}
	wantDue := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	if !inv.DueDate.Equal(wantDue) {
		t.Errorf("due date = %s, want %s", inv.DueDate, wantDue)
	}
}

func TestCreateForSubscriptionRetriesOnNumberCollision(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(repo, dec(t, "500.00"))
	repo.createErrs = []error{
		fmt.Errorf(`duplicate key value violates unique constraint "idx_invoices_number"`),
	}

	inv, err := testService(repo).CreateForSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First sequence burned by the collision, second attempt succeeds.
	if len(repo.created) != 1 {
		t.Fatalf("created %d invoices, want 1", len(repo.created))
	}
	if inv.Number == FormatNumber(PeriodFor(time.Now()), 1) {
		t.Errorf("number %s reused the colliding sequence", inv.Number)
	}
}

func TestCreateForSubscriptionExhaustsRetries(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(repo, dec(t, "500.00"))
	collision := fmt.Errorf(`duplicate key value violates unique constraint "idx_invoices_number"`)
	repo.createErrs = []error{collision, collision, collision}

	_, err := testService(repo).CreateForSubscription(context.Background(), sub.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Errorf("err = %v, want conflict after exhausted retries", err)
	}
}

func TestCreateForSubscriptionUnknownSubscription(t *testing.T) {
	_, err := testService(newStubRepo()).CreateForSubscription(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCreateForSubscriptionRejectsCancelledSubscription(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(repo, dec(t, "500.00"))
	sub.Status = enums.SubscriptionStatusCancelled

	_, err := testService(repo).CreateForSubscription(context.Background(), sub.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestCancelRejectsPaidInvoice(t *testing.T) {
	repo := newStubRepo()
	inv := &models.Invoice{ID: uuid.New(), Status: enums.InvoiceStatusPaid}
	repo.invoices[inv.ID] = inv

	_, err := testService(repo).Cancel(context.Background(), inv.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	inv := &models.Invoice{ID: uuid.New(), Status: enums.InvoiceStatusUnpaid}
	repo.invoices[inv.ID] = inv

	svc := testService(repo)
	if _, err := svc.Cancel(context.Background(), inv.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	got, err := svc.Cancel(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got.Status != enums.InvoiceStatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestNumberFormatting(t *testing.T) {
	if got := FormatNumber("202608", 42); got != "INV-202608-0042" {
		t.Errorf("FormatNumber = %s, want INV-202608-0042", got)
	}
	if got := FormatNumber("202612", 12345); got != "INV-202612-12345" {
		t.Errorf("FormatNumber = %s, want INV-202612-12345", got)
	}
	at := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	if got := PeriodFor(at); got != "202601" {
		t.Errorf("PeriodFor = %s, want 202601", got)
	}
}
