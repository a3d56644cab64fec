package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/metrics"
)

// nowFn is swapped in tests to pin paid_date stamps.
var nowFn = func() time.Time { return time.Now().UTC() }

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReconcileOutcome describes what one reconciliation run did to a
// subscription and its canonical invoice.
type ReconcileOutcome struct {
	RunID               uuid.UUID
	SubscriptionID      uuid.UUID
	Orphaned            bool
	OrphanReason        string
	SubscriptionChanges []FieldChange
	InvoiceID           *uuid.UUID
	InvoiceChanges      []FieldChange
	TrackedInvoices     int64
}

// Drifted reports whether the run corrected any stored field.
func (o ReconcileOutcome) Drifted() bool {
	return len(o.SubscriptionChanges) > 0 || len(o.InvoiceChanges) > 0
}

// AuditReport summarizes a batch audit over all subscriptions.
type AuditReport struct {
	RunID    uuid.UUID `json:"run_id"`
	Checked  int       `json:"checked"`
	Fixed    int       `json:"fixed"`
	Orphaned int       `json:"orphaned"`
	Errored  int       `json:"errored"`
}

// Service applies the reconciliation engine to stored records: it recomputes
// financial state inside a transaction, persists corrections, and writes an
// audit trail row for every changed field.
type Service struct {
	repo      Repository
	tx        TxRunner
	logg      *logger.Logger
	metrics   *metrics.ReconcileMetrics
	auditSize int
}

// NewService wires the reconciliation service. metrics may be nil.
func NewService(repo Repository, tx TxRunner, logg *logger.Logger, m *metrics.ReconcileMetrics, auditSize int) *Service {
	if auditSize <= 0 {
		auditSize = 500
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		logg:      logg,
		metrics:   m,
		auditSize: auditSize,
	}
}

// ReconcileSubscription reconciles one subscription and its canonical
// invoice under a fresh run ID. Callers that already hold a transaction
// should use ReconcileSubscriptionTx instead.
func (s *Service) ReconcileSubscription(ctx context.Context, subscriptionID uuid.UUID) (ReconcileOutcome, error) {
	runID := uuid.New()
	var outcome ReconcileOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		outcome, txErr = s.reconcileOne(ctx, s.repo.WithTx(tx), runID, subscriptionID)
		return txErr
	})
	return outcome, err
}

// ReconcileSubscriptionTx reconciles one subscription inside the caller's
// transaction so the correction commits or rolls back with the caller's
// write (recording a payment, deleting one, adjusting a discount).
func (s *Service) ReconcileSubscriptionTx(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID) (ReconcileOutcome, error) {
	return s.reconcileOne(ctx, s.repo.WithTx(tx), uuid.New(), subscriptionID)
}

func (s *Service) reconcileOne(ctx context.Context, repo Repository, runID uuid.UUID, subscriptionID uuid.UUID) (ReconcileOutcome, error) {
	outcome := ReconcileOutcome{RunID: runID, SubscriptionID: subscriptionID}

	sub, err := repo.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading subscription")
	}
	if sub == nil {
		return outcome, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found").
			WithDetails(map[string]any{"subscription_id": subscriptionID})
	}

	s.metrics.IncChecked("subscription")

	// Orphans keep their stored financials untouched: recomputing money on a
	// record whose plan or advertiser is gone would hide the integrity
	// problem instead of surfacing it.
	if orphanReason, orphanErr := s.orphanReason(ctx, repo, sub); orphanErr != nil {
		return outcome, orphanErr
	} else if orphanReason != "" {
		outcome.Orphaned = true
		outcome.OrphanReason = orphanReason
		s.metrics.IncOrphaned("subscription")
		if err := repo.CreateReconciliationLogs(ctx, []models.ReconciliationLog{{
			ID:         uuid.New(),
			RunID:      runID,
			EntityType: "subscription",
			EntityID:   sub.ID,
			Field:      "orphaned",
			OldValue:   "",
			NewValue:   orphanReason,
		}}); err != nil {
			return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing orphan log")
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"reason":          orphanReason,
		}), "orphaned subscription skipped by reconciliation")
		return outcome, nil
	}

	payments, err := repo.ListPaymentsBySubscription(ctx, sub.ID)
	if err != nil {
		return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payments")
	}

	subResult := ReconcileSubscription(sub, payments)
	outcome.SubscriptionChanges = subResult.Changes

	var logs []models.ReconciliationLog
	if len(subResult.Changes) > 0 {
		sub.PaidAmount = subResult.PaidAmount
		sub.RemainingAmount = subResult.RemainingAmount
		sub.PaymentStatus = subResult.PaymentStatus
		if err := repo.UpdateSubscriptionFinancials(ctx, sub); err != nil {
			return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting subscription corrections")
		}
		s.metrics.IncDrift("subscription")
		logs = append(logs, changeLogs(runID, "subscription", sub.ID, subResult.Changes)...)
	}

	invOutcome, invLogs, err := s.reconcileCanonicalInvoice(ctx, repo, runID, sub, payments)
	if err != nil {
		return outcome, err
	}
	outcome.InvoiceID = invOutcome.InvoiceID
	outcome.InvoiceChanges = invOutcome.InvoiceChanges
	outcome.TrackedInvoices = invOutcome.TrackedInvoices
	logs = append(logs, invLogs...)

	if err := repo.CreateReconciliationLogs(ctx, logs); err != nil {
		return outcome, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing reconciliation logs")
	}

	if outcome.Drifted() {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"run_id":          runID.String(),
			"corrections":     len(outcome.SubscriptionChanges) + len(outcome.InvoiceChanges),
		}), "reconciliation corrected stored financials")
	}

	return outcome, nil
}

func (s *Service) orphanReason(ctx context.Context, repo Repository, sub *models.Subscription) (string, error) {
	planOK, err := repo.PlanExists(ctx, sub.PlanID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking plan reference")
	}
	if !planOK {
		return fmt.Sprintf("plan %s missing", sub.PlanID), nil
	}
	advertiserOK, err := repo.AdvertiserExists(ctx, sub.AdvertiserID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking advertiser reference")
	}
	if !advertiserOK {
		return fmt.Sprintf("advertiser %s missing", sub.AdvertiserID), nil
	}
	return "", nil
}

func (s *Service) reconcileCanonicalInvoice(ctx context.Context, repo Repository, runID uuid.UUID, sub *models.Subscription, subscriptionPayments []models.Payment) (ReconcileOutcome, []models.ReconciliationLog, error) {
	var outcome ReconcileOutcome

	tracked, err := repo.CountTrackedInvoices(ctx, sub.ID)
	if err != nil {
		return outcome, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting invoices")
	}
	outcome.TrackedInvoices = tracked

	inv, err := repo.FindCanonicalInvoice(ctx, sub.ID)
	if err != nil {
		return outcome, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading canonical invoice")
	}
	if inv == nil {
		return outcome, nil, nil
	}
	outcome.InvoiceID = &inv.ID

	s.metrics.IncChecked("invoice")

	if tracked > 1 {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID.String(),
			"invoice_id":      inv.ID.String(),
			"tracked":         tracked,
		}), "subscription has multiple live invoices, reconciling newest only")
	}

	direct, err := repo.ListPaymentsByInvoice(ctx, inv.ID)
	if err != nil {
		return outcome, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice payments")
	}

	invResult := ReconcileInvoice(inv, direct, subscriptionPayments)
	if len(invResult.Changes) == 0 {
		return outcome, nil, nil
	}
	outcome.InvoiceChanges = invResult.Changes

	inv.PaidAmount = invResult.PaidAmount
	inv.Status = invResult.Status
	if invResult.SettledNow {
		now := nowFn()
		inv.PaidDate = &now
	} else if invResult.Status != enums.InvoiceStatusPaid {
		// A demoted invoice must not keep a stale paid_date.
		inv.PaidDate = nil
	}
	if err := repo.UpdateInvoiceFinancials(ctx, inv); err != nil {
		return outcome, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting invoice corrections")
	}
	s.metrics.IncDrift("invoice")

	return outcome, changeLogs(runID, "invoice", inv.ID, invResult.Changes), nil
}

// RunAudit sweeps every subscription, reconciling each inside its own
// transaction so one bad record cannot poison the batch.
func (s *Service) RunAudit(ctx context.Context) (AuditReport, error) {
	report := AuditReport{RunID: uuid.New()}

	offset := 0
	for {
		ids, err := s.repo.ListSubscriptionIDs(ctx, s.auditSize, offset)
		if err != nil {
			return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing subscriptions for audit")
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			var outcome ReconcileOutcome
			err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
				var txErr error
				outcome, txErr = s.reconcileOne(ctx, s.repo.WithTx(tx), report.RunID, id)
				return txErr
			})
			if err != nil {
				report.Errored++
				s.logg.Error(s.logg.WithField(ctx, "subscription_id", id.String()), "audit reconciliation failed", err)
				continue
			}

			report.Checked++
			if outcome.Orphaned {
				report.Orphaned++
			}
			if outcome.Drifted() {
				report.Fixed++
			}
		}

		offset += len(ids)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"run_id":   report.RunID.String(),
		"checked":  report.Checked,
		"fixed":    report.Fixed,
		"orphaned": report.Orphaned,
		"errored":  report.Errored,
	}), "reconciliation audit finished")

	return report, nil
}

func changeLogs(runID uuid.UUID, entityType string, entityID uuid.UUID, changes []FieldChange) []models.ReconciliationLog {
	logs := make([]models.ReconciliationLog, 0, len(changes))
	for _, change := range changes {
		logs = append(logs, models.ReconciliationLog{
			ID:         uuid.New(),
			RunID:      runID,
			EntityType: entityType,
			EntityID:   entityID,
			Field:      change.Field,
			OldValue:   change.OldValue,
			NewValue:   change.NewValue,
		})
	}
	return logs
}
