package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/payments"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// PaymentService is the payment ledger surface.
type PaymentService interface {
	Record(ctx context.Context, input payments.RecordInput) (*models.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error)
}

type paymentRecordRequest struct {
	SubscriptionID string          `json:"subscription_id" validate:"required,uuid"`
	InvoiceID      *string         `json:"invoice_id" validate:"omitempty,uuid"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate    *time.Time      `json:"payment_date"`
	Method         string          `json:"method" validate:"required"`
	Notes          string          `json:"notes"`
}

// PaymentRecord appends a payment and reconciles the subscription in the
// same transaction.
func PaymentRecord(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body paymentRecordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}

		subscriptionID, _ := uuid.Parse(body.SubscriptionID)
		input := payments.RecordInput{
			SubscriptionID: subscriptionID,
			Amount:         body.Amount,
			Method:         method,
			Notes:          body.Notes,
		}
		if body.InvoiceID != nil {
			invoiceID, _ := uuid.Parse(*body.InvoiceID)
			input.InvoiceID = &invoiceID
		}
		if body.PaymentDate != nil {
			input.PaymentDate = *body.PaymentDate
		}

		payment, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PaymentDelete is the admin exception path; removal re-reconciles the
// subscription.
func PaymentDelete(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// PaymentsBySubscription lists a subscription's payment ledger.
func PaymentsBySubscription(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subscriptionID, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBySubscription(r.Context(), subscriptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
