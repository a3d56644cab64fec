package directory

import (
	"context"
	"strings"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// Service answers the public directory queries.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the directory service.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// ListByCity returns the advertisers visible in a city, optionally narrowed
// to one sector. An advertiser shows when it is active and its coverage
// reaches the city: kingdom and "both" always do, city coverage requires the
// city in its covered set.
func (s *Service) ListByCity(ctx context.Context, city string, sector *enums.Sector) ([]models.Advertiser, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if sector != nil && !sector.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sector").
			WithDetails(map[string]any{"sector": *sector})
	}

	candidates, err := s.repo.ListActive(ctx, sector)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading directory advertisers")
	}

	visible := make([]models.Advertiser, 0, len(candidates))
	for _, adv := range candidates {
		if VisibleInCity(adv, city) {
			visible = append(visible, adv)
		}
	}
	return visible, nil
}

// ListPlans returns the purchasable plan catalog for the public site.
func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading plan catalog")
	}
	return plans, nil
}

// VisibleInCity is the directory visibility predicate for one advertiser.
func VisibleInCity(adv models.Advertiser, city string) bool {
	if adv.Status != enums.AdvertiserStatusActive {
		return false
	}
	switch adv.CoverageType {
	case enums.CoverageScopeKingdom:
		return true
	case enums.CoverageScopeBoth:
		return true
	case enums.CoverageScopeCity:
		for _, covered := range adv.CoverageCities {
			if strings.EqualFold(covered, city) {
				return true
			}
		}
	}
	return false
}
