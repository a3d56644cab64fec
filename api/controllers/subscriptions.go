package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/subscriptions"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// SubscriptionService is the subscription lifecycle surface.
type SubscriptionService interface {
	Create(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error)
	Renew(ctx context.Context, subscriptionID uuid.UUID, discountType enums.DiscountType, discountValue decimal.Decimal) (*models.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error)
	AdjustDiscount(ctx context.Context, id uuid.UUID, discountType enums.DiscountType, discountValue decimal.Decimal) (*models.Subscription, error)
	Activate(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
}

type subscriptionCreateRequest struct {
	AdvertiserID  string          `json:"advertiser_id" validate:"required,uuid"`
	PlanID        string          `json:"plan_id" validate:"required,uuid"`
	StartDate     *time.Time      `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

type discountRequest struct {
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// SubscriptionCreate purchases a plan for an advertiser.
func SubscriptionCreate(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subscriptionCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		advertiserID, _ := uuid.Parse(body.AdvertiserID)
		planID, _ := uuid.Parse(body.PlanID)

		input := subscriptions.CreateInput{
			AdvertiserID:  advertiserID,
			PlanID:        planID,
			EndDate:       body.EndDate,
			DiscountValue: body.DiscountValue,
		}
		if body.StartDate != nil {
			input.StartDate = *body.StartDate
		}
		if body.DiscountType != "" {
			discountType, err := enums.ParseDiscountType(body.DiscountType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount type"))
				return
			}
			input.DiscountType = discountType
		}

		sub, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// SubscriptionRenew starts a follow-on term when the current one ends.
func SubscriptionRenew(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body discountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := enums.ParseDiscountType(body.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount type"))
			return
		}

		sub, err := svc.Renew(r.Context(), id, discountType, body.DiscountValue)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// SubscriptionDetail serves one subscription.
func SubscriptionDetail(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionsByAdvertiser lists an advertiser's subscription history.
func SubscriptionsByAdvertiser(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		advertiserID, err := validators.ParseUUIDParam(r, "advertiserId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subs, err := svc.ListByAdvertiser(r.Context(), advertiserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

// SubscriptionAdjustDiscount recomputes the deal's totals with a new discount.
func SubscriptionAdjustDiscount(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body discountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := enums.ParseDiscountType(body.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount type"))
			return
		}

		sub, err := svc.AdjustDiscount(r.Context(), id, discountType, body.DiscountValue)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionActivate flips a pending subscription live.
func SubscriptionActivate(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Activate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionCancel terminates a subscription.
func SubscriptionCancel(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "subscriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}
