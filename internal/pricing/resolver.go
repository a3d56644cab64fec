package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// PolicyVersion identifies the pricing table in force. Bump it whenever the
// tables change so audit output can say which policy a price came from.
const PolicyVersion = "2026-01"

// recognizedTiers are the only durations the policy prices. Historical tiers
// (60/90/180/365) were retired during the catalog cleanup and must be
// rejected by validation, never silently priced.
var recognizedTiers = []int{7, 14, 30}

type tierKey struct {
	sector enums.Sector
	scope  enums.CoverageScope
	days   int
}

// Resolver answers "what should this plan cost" under the active policy.
// It is pure and safe for concurrent use.
type Resolver struct {
	prices map[tierKey]decimal.Decimal
}

// Query identifies a priced tier. City is accepted for forward compatibility
// with per-city pricing; the current policy prices all cities identically.
type Query struct {
	Sector       enums.Sector
	Scope        enums.CoverageScope
	City         *string
	DurationDays int
}

// NewResolver builds the resolver with the current policy tables.
func NewResolver() *Resolver {
	cityRates := map[int]string{7: "500", 14: "900", 30: "1500"}
	kingdomRates := map[int]string{7: "1200", 14: "2200", 30: "4000"}

	prices := make(map[tierKey]decimal.Decimal)
	for _, sector := range enums.Sectors() {
		for days, rate := range cityRates {
			prices[tierKey{sector, enums.CoverageScopeCity, days}] = decimal.RequireFromString(rate)
		}
		for days, rate := range kingdomRates {
			prices[tierKey{sector, enums.CoverageScopeKingdom, days}] = decimal.RequireFromString(rate)
		}
	}

	// Movers carry a kingdom premium: the sector has the widest reach and the
	// original rate card priced it above the other verticals.
	prices[tierKey{enums.SectorMovers, enums.CoverageScopeKingdom, 30}] = decimal.RequireFromString("4500")

	return &Resolver{prices: prices}
}

// Resolve returns the canonical price for the query, or ok=false when the
// combination is not covered by policy. It never guesses.
func (r *Resolver) Resolve(q Query) (decimal.Decimal, bool) {
	if !q.Sector.IsValid() || !q.Scope.IsPurchasable() {
		return decimal.Zero, false
	}
	if !RecognizedTier(q.DurationDays) {
		return decimal.Zero, false
	}
	price, ok := r.prices[tierKey{q.Sector, q.Scope, q.DurationDays}]
	return price, ok
}

// RecognizedTier reports whether the duration is a priced tier.
func RecognizedTier(days int) bool {
	for _, tier := range recognizedTiers {
		if tier == days {
			return true
		}
	}
	return false
}

// RecognizedTiers returns the priced durations in ascending order.
func RecognizedTiers() []int {
	out := make([]int, len(recognizedTiers))
	copy(out, recognizedTiers)
	return out
}
