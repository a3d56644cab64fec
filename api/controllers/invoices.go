package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/invoices"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// InvoiceService is the invoice read/cancel surface.
type InvoiceService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*models.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error)
	List(ctx context.Context, filter invoices.ListFilter, params pagination.Params) (invoices.ListResult, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

type invoiceListResponse struct {
	Invoices   []models.Invoice `json:"invoices"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// InvoiceList serves a cursor page, optionally filtered by status or
// advertiser.
func InvoiceList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter invoices.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("advertiser_id")); raw != "" {
			advertiserID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "advertiser_id must be a uuid"))
				return
			}
			filter.AdvertiserID = &advertiserID
		}

		result, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceListResponse{
			Invoices:   result.Invoices,
			NextCursor: result.NextCursor,
		})
	}
}

// InvoiceDetail serves one invoice by id, or by number when the path segment
// looks like an invoice number.
func InvoiceDetail(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "invoiceId"))
		if strings.HasPrefix(raw, "INV-") {
			invoice, err := svc.GetByNumber(r.Context(), raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, invoice)
			return
		}

		id, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// InvoicesBySubscription lists a subscription's invoices.
func InvoicesBySubscription(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
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

// InvoiceCancel voids an unpaid invoice.
func InvoiceCancel(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
