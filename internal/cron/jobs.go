package cron

import (
	"context"
	"time"

	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// Auditor walks tracked subscriptions and repairs financial drift.
type Auditor interface {
	RunAudit(ctx context.Context) (billing.AuditReport, error)
}

// SubscriptionExpirer closes out subscriptions past their end date.
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context, asOf time.Time) (int, error)
}

// InvoiceOverdueMarker flags open invoices past their due date.
type InvoiceOverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// CoverageRefresher recomputes derived coverage for every advertiser.
type CoverageRefresher interface {
	RefreshAllCoverage(ctx context.Context) (checked, changed int, err error)
}

// ReconciliationAuditJob sweeps the full subscription table and fixes
// any stored totals that drifted from the recorded payments.
type ReconciliationAuditJob struct {
	auditor Auditor
	logg    *logger.Logger
}

func NewReconciliationAuditJob(auditor Auditor, logg *logger.Logger) *ReconciliationAuditJob {
	return &ReconciliationAuditJob{auditor: auditor, logg: logg}
}

func (j *ReconciliationAuditJob) Name() string { return "reconciliation_audit" }

func (j *ReconciliationAuditJob) Run(ctx context.Context) error {
	report, err := j.auditor.RunAudit(ctx)
	if err != nil {
		return err
	}
	ctx = j.logg.WithField(ctx, "run_id", report.RunID.String())
	ctx = j.logg.WithField(ctx, "checked", report.Checked)
	ctx = j.logg.WithField(ctx, "fixed", report.Fixed)
	ctx = j.logg.WithField(ctx, "orphaned", report.Orphaned)
	ctx = j.logg.WithField(ctx, "errored", report.Errored)
	j.logg.Info(ctx, "reconciliation audit finished")
	return nil
}

// SubscriptionExpiryJob transitions active subscriptions whose end date
// has passed to expired and refreshes the owners' coverage.
type SubscriptionExpiryJob struct {
	expirer SubscriptionExpirer
	logg    *logger.Logger
}

func NewSubscriptionExpiryJob(expirer SubscriptionExpirer, logg *logger.Logger) *SubscriptionExpiryJob {
	return &SubscriptionExpiryJob{expirer: expirer, logg: logg}
}

func (j *SubscriptionExpiryJob) Name() string { return "subscription_expiry" }

func (j *SubscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.expirer.ExpireDue(ctx, nowFn())
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", expired), "subscription expiry finished")
	return nil
}

// InvoiceOverdueJob moves unpaid and partial invoices past due date into
// the overdue state.
type InvoiceOverdueJob struct {
	marker InvoiceOverdueMarker
	logg   *logger.Logger
}

func NewInvoiceOverdueJob(marker InvoiceOverdueMarker, logg *logger.Logger) *InvoiceOverdueJob {
	return &InvoiceOverdueJob{marker: marker, logg: logg}
}

func (j *InvoiceOverdueJob) Name() string { return "invoice_overdue" }

func (j *InvoiceOverdueJob) Run(ctx context.Context) error {
	marked, err := j.marker.MarkOverdue(ctx, nowFn())
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "marked", marked), "invoice overdue sweep finished")
	return nil
}

// CoverageRefreshJob recomputes the derived coverage fields for all
// advertisers, catching any drift missed by inline refreshes.
type CoverageRefreshJob struct {
	refresher CoverageRefresher
	logg      *logger.Logger
}

func NewCoverageRefreshJob(refresher CoverageRefresher, logg *logger.Logger) *CoverageRefreshJob {
	return &CoverageRefreshJob{refresher: refresher, logg: logg}
}

func (j *CoverageRefreshJob) Name() string { return "coverage_refresh" }

func (j *CoverageRefreshJob) Run(ctx context.Context) error {
	checked, changed, err := j.refresher.RefreshAllCoverage(ctx)
	// A partial sweep still reports its counts; the combined error marks the
	// run failed.
	ctx = j.logg.WithField(ctx, "checked", checked)
	ctx = j.logg.WithField(ctx, "changed", changed)
	j.logg.Info(ctx, "coverage refresh finished")
	return err
}

// nowFn is swapped in tests to pin sweep timestamps.
var nowFn = func() time.Time { return time.Now().UTC() }
