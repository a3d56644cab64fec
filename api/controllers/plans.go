package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/plans"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// PlanService is the admin plan catalog surface.
type PlanService interface {
	Create(ctx context.Context, input plans.CreateInput) (*models.Plan, error)
	Get(ctx context.Context, id uuid.UUID) (*plans.PlanView, error)
	Update(ctx context.Context, id uuid.UUID, input plans.UpdateInput) (*models.Plan, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	List(ctx context.Context, includeInactive bool) ([]plans.PlanView, error)
}

type planCreateRequest struct {
	Name          string           `json:"name" validate:"required"`
	Sector        string           `json:"sector" validate:"required"`
	CoverageScope string           `json:"coverage_scope" validate:"required"`
	City          *string          `json:"city"`
	DurationDays  int              `json:"duration_days" validate:"required"`
	Price         *decimal.Decimal `json:"price"`
}

type planUpdateRequest struct {
	Name   *string          `json:"name"`
	Price  *decimal.Decimal `json:"price"`
	Active *bool            `json:"active"`
}

// PlanCreate adds a catalog plan. Price may be omitted to use the policy
// price for the tier.
func PlanCreate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body planCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sector, err := enums.ParseSector(body.Sector)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sector"))
			return
		}
		scope, err := enums.ParseCoverageScope(body.CoverageScope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown coverage scope"))
			return
		}

		plan, err := svc.Create(r.Context(), plans.CreateInput{
			Name:          body.Name,
			Sector:        sector,
			CoverageScope: scope,
			City:          body.City,
			DurationDays:  body.DurationDays,
			Price:         body.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, plan)
	}
}

// PlanDetail serves one plan annotated with its policy divergence.
func PlanDetail(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PlanUpdate applies a partial edit.
func PlanUpdate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body planUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.Update(r.Context(), id, plans.UpdateInput{
			Name:   body.Name,
			Price:  body.Price,
			Active: body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// PlanDeactivate retires a plan from sale.
func PlanDeactivate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.Deactivate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// PlanList serves the annotated catalog; pass include_inactive=true for the
// full history.
func PlanList(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := r.URL.Query().Get("include_inactive") == "true"

		list, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
