package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/adrequests"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// AdRequestService is the intake triage surface.
type AdRequestService interface {
	Submit(ctx context.Context, input adrequests.SubmitInput) (*models.AdRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AdRequest, error)
	List(ctx context.Context, status *enums.AdRequestStatus) ([]models.AdRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Advertiser, error)
	Reject(ctx context.Context, id uuid.UUID, notes string) (*models.AdRequest, error)
}

type adRequestSubmitRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Sector      string `json:"sector" validate:"required"`
	City        string `json:"city" validate:"required"`
	Notes       string `json:"notes"`
}

type adRequestRejectRequest struct {
	Notes string `json:"notes"`
}

// AdRequestSubmit takes the public intake form.
func AdRequestSubmit(svc AdRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adRequestSubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sector, err := enums.ParseSector(body.Sector)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sector"))
			return
		}

		req, err := svc.Submit(r.Context(), adrequests.SubmitInput{
			CompanyName: body.CompanyName,
			ContactName: body.ContactName,
			Phone:       body.Phone,
			Email:       body.Email,
			Sector:      sector,
			City:        body.City,
			Notes:       body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

// AdRequestList serves the admin triage queue, optionally filtered by status.
func AdRequestList(svc AdRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.AdRequestStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseAdRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdRequestDetail serves one intake request.
func AdRequestDetail(svc AdRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// AdRequestApprove converts a pending request into an advertiser.
func AdRequestApprove(svc AdRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		advertiser, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, advertiser)
	}
}

// AdRequestReject marks a pending request rejected.
func AdRequestReject(svc AdRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adRequestRejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Reject(r.Context(), id, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
