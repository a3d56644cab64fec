package advertisers

import (
	"sort"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Coverage is the derived visibility of an advertiser: which scope it shows
// under and, for city coverage, the union of covered cities.
type Coverage struct {
	Scope  enums.CoverageScope
	Cities []string
}

// HasLive reports whether any live subscription backs the coverage.
func (c Coverage) HasLive() bool {
	return c.Scope == enums.CoverageScopeKingdom ||
		c.Scope == enums.CoverageScopeBoth ||
		len(c.Cities) > 0
}

// AggregateCoverage derives advertiser coverage from its subscriptions. Only
// live subscriptions (pending_payment, active, paused) contribute; cancelled
// and expired ones never do. A kingdom subscription alongside city ones
// yields "both" with the city union intact.
func AggregateCoverage(subs []models.Subscription) Coverage {
	hasKingdom := false
	citySet := map[string]struct{}{}

	for _, sub := range subs {
		if !sub.Status.IsLive() {
			continue
		}
		switch sub.CoverageScope {
		case enums.CoverageScopeKingdom:
			hasKingdom = true
		case enums.CoverageScopeCity:
			if sub.City != nil && *sub.City != "" {
				citySet[*sub.City] = struct{}{}
			}
		}
	}

	cities := make([]string, 0, len(citySet))
	for city := range citySet {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	scope := enums.CoverageScopeCity
	switch {
	case hasKingdom && len(cities) > 0:
		scope = enums.CoverageScopeBoth
	case hasKingdom:
		scope = enums.CoverageScopeKingdom
	}

	return Coverage{Scope: scope, Cities: cities}
}
