package advertisers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/multierr"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

// CreateInput captures the admin-supplied advertiser fields. Coverage is
// never accepted from input; it is derived from subscriptions.
type CreateInput struct {
	CompanyName string
	ContactName string
	Phone       string
	WhatsApp    string
	Email       string
	Sector      enums.Sector
}

// UpdateInput carries optional field updates; nil means leave unchanged.
type UpdateInput struct {
	CompanyName *string
	ContactName *string
	Phone       *string
	WhatsApp    *string
	Email       *string
	Status      *enums.AdvertiserStatus
}

// ListResult is a page of advertisers with the cursor for the next page.
type ListResult struct {
	Advertisers []models.Advertiser
	NextCursor  string
}

// Service owns advertiser lifecycle and the coverage refresh.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the advertiser service.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Create registers an advertiser. New advertisers start pending with empty
// coverage until a subscription is purchased.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Advertiser, error) {
	if input.CompanyName == "" || input.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name and phone are required")
	}
	if !input.Sector.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sector").
			WithDetails(map[string]any{"sector": input.Sector})
	}

	adv := &models.Advertiser{
		ID:             uuid.New(),
		CompanyName:    input.CompanyName,
		ContactName:    input.ContactName,
		Phone:          input.Phone,
		WhatsApp:       input.WhatsApp,
		Email:          input.Email,
		Sector:         input.Sector,
		Status:         enums.AdvertiserStatusPending,
		CoverageType:   enums.CoverageScopeCity,
		CoverageCities: pq.StringArray{},
	}
	if err := s.repo.Create(ctx, adv); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating advertiser")
	}

	s.logg.Info(s.logg.WithAdvertiserID(ctx, adv.ID.String()), "advertiser created")
	return adv, nil
}

// Get returns an advertiser by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Advertiser, error) {
	adv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading advertiser")
	}
	if adv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advertiser not found").
			WithDetails(map[string]any{"advertiser_id": id})
	}
	return adv, nil
}

// Update applies partial edits to contact fields and status. Coverage fields
// are not editable here; the aggregator owns them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Advertiser, error) {
	adv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CompanyName != nil {
		if *input.CompanyName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name cannot be empty")
		}
		adv.CompanyName = *input.CompanyName
	}
	if input.ContactName != nil {
		adv.ContactName = *input.ContactName
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be empty")
		}
		adv.Phone = *input.Phone
	}
	if input.WhatsApp != nil {
		adv.WhatsApp = *input.WhatsApp
	}
	if input.Email != nil {
		adv.Email = *input.Email
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown advertiser status")
		}
		adv.Status = *input.Status
	}

	if err := s.repo.Update(ctx, adv); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating advertiser")
	}
	return adv, nil
}

// List returns a cursor page of advertisers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) (ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	advs, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing advertisers")
	}

	result := ListResult{Advertisers: advs}
	if len(advs) > limit {
		result.Advertisers = advs[:limit]
		last := result.Advertisers[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// RefreshCoverage recomputes one advertiser's derived coverage from its
// subscriptions and persists it when it changed. Returns the new coverage.
func (s *Service) RefreshCoverage(ctx context.Context, advertiserID uuid.UUID) (Coverage, error) {
	adv, err := s.Get(ctx, advertiserID)
	if err != nil {
		return Coverage{}, err
	}

	subs, err := s.repo.ListSubscriptions(ctx, advertiserID)
	if err != nil {
		return Coverage{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading subscriptions")
	}

	coverage := AggregateCoverage(subs)
	if coverageEqual(adv, coverage) {
		return coverage, nil
	}

	if err := s.repo.UpdateCoverage(ctx, advertiserID, coverage.Scope, coverage.Cities); err != nil {
		return Coverage{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting coverage")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"advertiser_id": advertiserID.String(),
		"scope":         coverage.Scope.String(),
		"cities":        coverage.Cities,
	}), "advertiser coverage refreshed")
	return coverage, nil
}

// RefreshAllCoverage sweeps every advertiser. Returns how many were checked
// and how many changed; individual failures do not stop the sweep, they are
// logged and returned combined so the caller sees a partial run.
func (s *Service) RefreshAllCoverage(ctx context.Context) (checked, changed int, err error) {
	var errs error
	offset := 0
	for {
		ids, listErr := s.repo.ListIDs(ctx, 500, offset)
		if listErr != nil {
			return checked, changed, pkgerrors.Wrap(pkgerrors.CodeInternal, listErr, "listing advertisers for coverage refresh")
		}
		if len(ids) == 0 {
			return checked, changed, errs
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return checked, changed, err
			}
			adv, err := s.repo.FindByID(ctx, id)
			if err != nil {
				s.logg.Error(s.logg.WithAdvertiserID(ctx, id.String()), "coverage refresh load failed", err)
				errs = multierr.Append(errs, fmt.Errorf("load advertiser %s: %w", id, err))
				continue
			}
			if adv == nil {
				// Deleted between pages.
				continue
			}
			subs, err := s.repo.ListSubscriptions(ctx, id)
			if err != nil {
				s.logg.Error(s.logg.WithAdvertiserID(ctx, id.String()), "coverage refresh subscriptions failed", err)
				errs = multierr.Append(errs, fmt.Errorf("list subscriptions for %s: %w", id, err))
				continue
			}
			checked++
			coverage := AggregateCoverage(subs)
			if coverageEqual(adv, coverage) {
				continue
			}
			if err := s.repo.UpdateCoverage(ctx, id, coverage.Scope, coverage.Cities); err != nil {
				s.logg.Error(s.logg.WithAdvertiserID(ctx, id.String()), "coverage refresh persist failed", err)
				errs = multierr.Append(errs, fmt.Errorf("persist coverage for %s: %w", id, err))
				continue
			}
			changed++
		}

		offset += len(ids)
	}
}

func coverageEqual(adv *models.Advertiser, coverage Coverage) bool {
	if adv.CoverageType != coverage.Scope {
		return false
	}
	if len(adv.CoverageCities) != len(coverage.Cities) {
		return false
	}
	for i, city := range coverage.Cities {
		if adv.CoverageCities[i] != city {
			return false
		}
	}
	return true
}
