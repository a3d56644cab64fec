package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/internal/billing"
)

type stubAuditor struct {
	report billing.AuditReport
	err    error
	calls  int
}

func (a *stubAuditor) RunAudit(_ context.Context) (billing.AuditReport, error) {
	a.calls++
	return a.report, a.err
}

type stubExpirer struct {
	asOf  time.Time
	err   error
	calls int
}

func (e *stubExpirer) ExpireDue(_ context.Context, asOf time.Time) (int, error) {
	e.calls++
	e.asOf = asOf
	return 2, e.err
}

type stubMarker struct {
	asOf  time.Time
	err   error
	calls int
}

func (m *stubMarker) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	m.calls++
	m.asOf = asOf
	return 3, m.err
}

type stubRefresher struct {
	err   error
	calls int
}

func (r *stubRefresher) RefreshAllCoverage(_ context.Context) (int, int, error) {
	r.calls++
	return 10, 1, r.err
}

func pinNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFn
	nowFn = func() time.Time { return at }
	t.Cleanup(func() { nowFn = prev })
}

func TestReconciliationAuditJob(t *testing.T) {
	auditor := &stubAuditor{report: billing.AuditReport{RunID: uuid.New(), Checked: 5, Fixed: 1}}
	job := NewReconciliationAuditJob(auditor, testLogger())

	if job.Name() != "reconciliation_audit" {
		t.Errorf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auditor.calls != 1 {
		t.Errorf("audit calls = %d, want 1", auditor.calls)
	}

	auditor.err = errors.New("db gone")
	if err := job.Run(context.Background()); err == nil {
		t.Error("audit error not propagated")
	}
}

func TestSubscriptionExpiryJobUsesCurrentTime(t *testing.T) {
	at := time.Date(2026, time.August, 20, 3, 0, 0, 0, time.UTC)
	pinNow(t, at)

	expirer := &stubExpirer{}
	job := NewSubscriptionExpiryJob(expirer, testLogger())

	if job.Name() != "subscription_expiry" {
		t.Errorf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expirer.asOf.Equal(at) {
		t.Errorf("asOf = %s, want %s", expirer.asOf, at)
	}

	expirer.err = errors.New("db gone")
	if err := job.Run(context.Background()); err == nil {
		t.Error("expiry error not propagated")
	}
}

func TestInvoiceOverdueJobUsesCurrentTime(t *testing.T) {
	at := time.Date(2026, time.August, 20, 3, 0, 0, 0, time.UTC)
	pinNow(t, at)

	marker := &stubMarker{}
	job := NewInvoiceOverdueJob(marker, testLogger())

	if job.Name() != "invoice_overdue" {
		t.Errorf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !marker.asOf.Equal(at) {
		t.Errorf("asOf = %s, want %s", marker.asOf, at)
	}
}

func TestCoverageRefreshJob(t *testing.T) {
	refresher := &stubRefresher{}
	job := NewCoverageRefreshJob(refresher, testLogger())

	if job.Name() != "coverage_refresh" {
		t.Errorf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}

	refresher.err = errors.New("db gone")
	if err := job.Run(context.Background()); err == nil {
		t.Error("refresh error not propagated")
	}
}
