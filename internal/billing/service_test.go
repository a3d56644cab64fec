package billing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

type stubRepo struct {
	subscriptions map[uuid.UUID]*models.Subscription
	payments      map[uuid.UUID][]models.Payment // by subscription
	invoicePays   map[uuid.UUID][]models.Payment // by invoice
	invoices      map[uuid.UUID][]*models.Invoice
	plans         map[uuid.UUID]bool
	advertisers   map[uuid.UUID]bool

	savedSubs     []*models.Subscription
	savedInvoices []*models.Invoice
	logs          []models.ReconciliationLog
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		subscriptions: map[uuid.UUID]*models.Subscription{},
		payments:      map[uuid.UUID][]models.Payment{},
		invoicePays:   map[uuid.UUID][]models.Payment{},
		invoices:      map[uuid.UUID][]*models.Invoice{},
		plans:         map[uuid.UUID]bool{},
		advertisers:   map[uuid.UUID]bool{},
	}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) FindSubscription(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, ok := r.subscriptions[id]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

func (r *stubRepo) ListSubscriptionIDs(_ context.Context, limit, offset int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range r.subscriptions {
		ids = append(ids, id)
	}
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *stubRepo) UpdateSubscriptionFinancials(_ context.Context, sub *models.Subscription) error {
	stored, ok := r.subscriptions[sub.ID]
	if ok {
		stored.PaidAmount = sub.PaidAmount
		stored.RemainingAmount = sub.RemainingAmount
		stored.PaymentStatus = sub.PaymentStatus
	}
	clone := *sub
	r.savedSubs = append(r.savedSubs, &clone)
	return nil
}

func (r *stubRepo) ListPaymentsBySubscription(_ context.Context, subID uuid.UUID) ([]models.Payment, error) {
	return r.payments[subID], nil
}

func (r *stubRepo) ListPaymentsByInvoice(_ context.Context, invID uuid.UUID) ([]models.Payment, error) {
	return r.invoicePays[invID], nil
}

func (r *stubRepo) FindCanonicalInvoice(_ context.Context, subID uuid.UUID) (*models.Invoice, error) {
	invs := r.invoices[subID]
	if len(invs) == 0 {
		return nil, nil
	}
	clone := *invs[len(invs)-1]
	return &clone, nil
}

func (r *stubRepo) CountTrackedInvoices(_ context.Context, subID uuid.UUID) (int64, error) {
	return int64(len(r.invoices[subID])), nil
}

func (r *stubRepo) UpdateInvoiceFinancials(_ context.Context, inv *models.Invoice) error {
	for _, stored := range r.invoices[inv.SubscriptionID] {
		if stored.ID == inv.ID {
			stored.PaidAmount = inv.PaidAmount
			stored.Status = inv.Status
			stored.PaidDate = inv.PaidDate
		}
	}
	clone := *inv
	r.savedInvoices = append(r.savedInvoices, &clone)
	return nil
}

func (r *stubRepo) PlanExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.plans[id], nil
}

func (r *stubRepo) AdvertiserExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.advertisers[id], nil
}

func (r *stubRepo) CreateReconciliationLogs(_ context.Context, logs []models.ReconciliationLog) error {
	r.logs = append(r.logs, logs...)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func testService(repo *stubRepo) *Service {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, stubTx{}, logg, nil, 100)
}

func seedSubscription(t *testing.T, repo *stubRepo, total string) *models.Subscription {
	t.Helper()
	sub := testSubscription(t, total)
	repo.subscriptions[sub.ID] = sub
	repo.plans[sub.PlanID] = true
	repo.advertisers[sub.AdvertiserID] = true
	return sub
}

func TestServiceReconcileCorrectsDriftAndLogs(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(t, repo, "1400.00")
	repo.payments[sub.ID] = []models.Payment{paymentOf(t, sub.ID, "500.00")}

	svc := testService(repo)
	outcome, err := svc.ReconcileSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Drifted() {
		t.Fatal("expected drift corrections")
	}
	if len(repo.savedSubs) != 1 {
		t.Fatalf("saved %d subscriptions, want 1", len(repo.savedSubs))
	}
	saved := repo.savedSubs[0]
	if got := saved.PaidAmount.StringFixed(2); got != "500.00" {
		t.Errorf("saved paid = %s, want 500.00", got)
	}
	if got := saved.RemainingAmount.StringFixed(2); got != "900.00" {
		t.Errorf("saved remaining = %s, want 900.00", got)
	}

	if len(repo.logs) == 0 {
		t.Fatal("expected reconciliation log rows")
	}
	for _, entry := range repo.logs {
		if entry.RunID != outcome.RunID {
			t.Errorf("log run_id = %s, want %s", entry.RunID, outcome.RunID)
		}
		if entry.EntityType != "subscription" {
			t.Errorf("log entity_type = %s, want subscription", entry.EntityType)
		}
	}
}

func TestServiceReconcileIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(t, repo, "1400.00")
	repo.payments[sub.ID] = []models.Payment{paymentOf(t, sub.ID, "500.00")}

	svc := testService(repo)
	ctx := context.Background()

	if _, err := svc.ReconcileSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	logsAfterFirst := len(repo.logs)

	outcome, err := svc.ReconcileSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if outcome.Drifted() {
		t.Error("second run reported drift on already-consistent record")
	}
	if len(repo.logs) != logsAfterFirst {
		t.Errorf("second run appended %d log rows, want 0", len(repo.logs)-logsAfterFirst)
	}
}

func TestServiceReconcileFlagsOrphanAndSkipsFinancials(t *testing.T) {
	repo := newStubRepo()
	sub := testSubscription(t, "1000.00")
	sub.PaidAmount = dec(t, "123.00") // stale, must be preserved
	repo.subscriptions[sub.ID] = sub
	repo.advertisers[sub.AdvertiserID] = true
	// plan deliberately missing

	svc := testService(repo)
	outcome, err := svc.ReconcileSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Orphaned {
		t.Fatal("expected orphan flag")
	}
	if len(repo.savedSubs) != 0 {
		t.Error("orphaned subscription financials must not be rewritten")
	}
	if len(repo.logs) != 1 || repo.logs[0].Field != "orphaned" {
		t.Fatalf("logs = %+v, want single orphaned marker", repo.logs)
	}
}

func TestServiceReconcileUnknownSubscription(t *testing.T) {
	svc := testService(newStubRepo())
	_, err := svc.ReconcileSubscription(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestServiceReconcileSettlesCanonicalInvoice(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(t, repo, "1150.00")
	repo.payments[sub.ID] = []models.Payment{paymentOf(t, sub.ID, "1150.00")}

	inv := testInvoice(t, "1150.00", "unpaid")
	inv.SubscriptionID = sub.ID
	repo.invoices[sub.ID] = []*models.Invoice{inv}

	svc := testService(repo)
	outcome, err := svc.ReconcileSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.InvoiceID == nil || *outcome.InvoiceID != inv.ID {
		t.Fatal("expected canonical invoice to be reconciled")
	}
	if len(repo.savedInvoices) != 1 {
		t.Fatalf("saved %d invoices, want 1", len(repo.savedInvoices))
	}
	saved := repo.savedInvoices[0]
	if saved.Status != "paid" {
		t.Errorf("invoice status = %s, want paid", saved.Status)
	}
	if saved.PaidDate == nil {
		t.Error("settled invoice must carry paid_date")
	}
}

func TestServiceReconcileClearsPaidDateOnDemotion(t *testing.T) {
	repo := newStubRepo()
	sub := seedSubscription(t, repo, "1150.00")
	// No payments on record: the previously settled invoice must demote.

	inv := testInvoice(t, "1150.00", "paid")
	inv.SubscriptionID = sub.ID
	inv.PaidAmount = dec(t, "1150.00")
	settled := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	inv.PaidDate = &settled
	repo.invoices[sub.ID] = []*models.Invoice{inv}

	svc := testService(repo)
	if _, err := svc.ReconcileSubscription(context.Background(), sub.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.savedInvoices) != 1 {
		t.Fatalf("saved %d invoices, want 1", len(repo.savedInvoices))
	}
	saved := repo.savedInvoices[0]
	if saved.Status != "unpaid" {
		t.Errorf("invoice status = %s, want unpaid", saved.Status)
	}
	if !saved.PaidAmount.IsZero() {
		t.Errorf("invoice paid = %s, want 0", saved.PaidAmount)
	}
	if saved.PaidDate != nil {
		t.Error("demoted invoice must not keep paid_date")
	}
}

func TestRunAuditCounts(t *testing.T) {
	repo := newStubRepo()

	// Consistent record: no drift.
	clean := seedSubscription(t, repo, "500.00")
	repo.payments[clean.ID] = []models.Payment{paymentOf(t, clean.ID, "500.00")}
	clean.PaidAmount = dec(t, "500.00")
	clean.RemainingAmount = decimal.Zero
	clean.PaymentStatus = "paid"

	// Drifted record.
	drifted := seedSubscription(t, repo, "1000.00")
	repo.payments[drifted.ID] = []models.Payment{paymentOf(t, drifted.ID, "400.00")}

	// Orphan: advertiser missing.
	orphan := testSubscription(t, "300.00")
	repo.subscriptions[orphan.ID] = orphan
	repo.plans[orphan.PlanID] = true

	svc := testService(repo)
	report, err := svc.RunAudit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Checked != 3 {
		t.Errorf("checked = %d, want 3", report.Checked)
	}
	if report.Fixed != 1 {
		t.Errorf("fixed = %d, want 1", report.Fixed)
	}
	if report.Orphaned != 1 {
		t.Errorf("orphaned = %d, want 1", report.Orphaned)
	}
	if report.Errored != 0 {
		t.Errorf("errored = %d, want 0", report.Errored)
	}
}
