package enums

import "fmt"

// CoverageScope describes where an advertiser or subscription is visible.
// "both" only ever appears on advertisers; it is derived from the union of
// live subscription scopes, never purchased directly.
type CoverageScope string

const (
	CoverageScopeCity    CoverageScope = "city"
	CoverageScopeKingdom CoverageScope = "kingdom"
	CoverageScopeBoth    CoverageScope = "both"
)

var validCoverageScopes = []CoverageScope{
	CoverageScopeCity,
	CoverageScopeKingdom,
	CoverageScopeBoth,
}

// subscriptionCoverageScopes are the scopes a single subscription can carry.
var subscriptionCoverageScopes = []CoverageScope{
	CoverageScopeCity,
	CoverageScopeKingdom,
}

// String implements fmt.Stringer.
func (c CoverageScope) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CoverageScope) IsValid() bool {
	for _, candidate := range validCoverageScopes {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsPurchasable reports whether a subscription may be sold with this scope.
func (c CoverageScope) IsPurchasable() bool {
	for _, candidate := range subscriptionCoverageScopes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCoverageScope converts raw input into a CoverageScope.
func ParseCoverageScope(value string) (CoverageScope, error) {
	for _, candidate := range validCoverageScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coverage scope %q", value)
}
