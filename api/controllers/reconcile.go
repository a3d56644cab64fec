package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// ReconcileService is the on-demand reconciliation surface.
type ReconcileService interface {
	RunAudit(ctx context.Context) (billing.AuditReport, error)
	ReconcileSubscription(ctx context.Context, subscriptionID uuid.UUID) (billing.ReconcileOutcome, error)
}

// ReconcileRun triggers a full financial audit across all subscriptions.
func ReconcileRun(svc ReconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.RunAudit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReconcileSubscription repairs a single subscription's financials.
func ReconcileSubscription(svc ReconcileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.ReconcileSubscription(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"run_id":               outcome.RunID,
			"subscription_id":      outcome.SubscriptionID,
			"drifted":              outcome.Drifted(),
			"orphaned":             outcome.Orphaned,
			"orphan_reason":        outcome.OrphanReason,
			"subscription_changes": outcome.SubscriptionChanges,
			"invoice_changes":      outcome.InvoiceChanges,
		})
	}
}
