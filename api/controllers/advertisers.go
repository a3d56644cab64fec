package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// AdvertiserService is the admin advertiser management surface.
type AdvertiserService interface {
	Create(ctx context.Context, input advertisers.CreateInput) (*models.Advertiser, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Advertiser, error)
	Update(ctx context.Context, id uuid.UUID, input advertisers.UpdateInput) (*models.Advertiser, error)
	List(ctx context.Context, filter advertisers.ListFilter, params pagination.Params) (advertisers.ListResult, error)
	RefreshCoverage(ctx context.Context, advertiserID uuid.UUID) (advertisers.Coverage, error)
}

type advertiserCreateRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone" validate:"required"`
	WhatsApp    string `json:"whatsapp"`
	Email       string `json:"email" validate:"omitempty,email"`
	Sector      string `json:"sector" validate:"required"`
}

type advertiserUpdateRequest struct {
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	WhatsApp    *string `json:"whatsapp"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Status      *string `json:"status"`
}

type advertiserListResponse struct {
	Advertisers []models.Advertiser `json:"advertisers"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// AdvertiserCreate registers an advertiser directly (bypassing intake).
func AdvertiserCreate(svc AdvertiserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body advertiserCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sector, err := enums.ParseSector(body.Sector)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sector"))
			return
		}

		advertiser, err := svc.Create(r.Context(), advertisers.CreateInput{
			CompanyName: body.CompanyName,
			ContactName: body.ContactName,
			Phone:       body.Phone,
			WhatsApp:    body.WhatsApp,
			Email:       body.Email,
			Sector:      sector,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, advertiser)
	}
}

// AdvertiserDetail serves one advertiser.
func AdvertiserDetail(svc AdvertiserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "advertiserId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		advertiser, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, advertiser)
	}
}

// AdvertiserUpdate applies a partial edit.
func AdvertiserUpdate(svc AdvertiserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "advertiserId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body advertiserUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := advertisers.UpdateInput{
			CompanyName: body.CompanyName,
			ContactName: body.ContactName,
			Phone:       body.Phone,
			WhatsApp:    body.WhatsApp,
			Email:       body.Email,
		}
		if body.Status != nil {
			status, err := enums.ParseAdvertiserStatus(*body.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			input.Status = &status
		}

		advertiser, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, advertiser)
	}
}

// AdvertiserList serves a cursor page, optionally filtered by sector/status.
func AdvertiserList(svc AdvertiserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter advertisers.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("sector")); raw != "" {
			sector, err := enums.ParseSector(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sector"))
				return
			}
			filter.Sector = &sector
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseAdvertiserStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			filter.Status = &status
		}

		result, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, advertiserListResponse{
			Advertisers: result.Advertisers,
			NextCursor:  result.NextCursor,
		})
	}
}

// AdvertiserRefreshCoverage recomputes one advertiser's derived coverage.
func AdvertiserRefreshCoverage(svc AdvertiserService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "advertiserId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coverage, err := svc.RefreshCoverage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coverage)
	}
}
