package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// DirectoryService is the public listing surface.
type DirectoryService interface {
	ListByCity(ctx context.Context, city string, sector *enums.Sector) ([]models.Advertiser, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
}

// DirectoryByCity serves the public per-city listing with an optional
// sector filter.
func DirectoryByCity(svc DirectoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := chi.URLParam(r, "city")

		var sector *enums.Sector
		if raw := strings.TrimSpace(r.URL.Query().Get("sector")); raw != "" {
			parsed, err := enums.ParseSector(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown sector"))
				return
			}
			sector = &parsed
		}

		advs, err := svc.ListByCity(r.Context(), city, sector)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, advs)
	}
}

// PublicPlans serves the purchasable plan catalog.
func PublicPlans(svc DirectoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPlans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
