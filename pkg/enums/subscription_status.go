package enums

import "fmt"

// SubscriptionStatus is the lifecycle state of a purchased plan.
type SubscriptionStatus string

const (
	SubscriptionStatusPendingPayment SubscriptionStatus = "pending_payment"
	SubscriptionStatusActive         SubscriptionStatus = "active"
	SubscriptionStatusPaused         SubscriptionStatus = "paused"
	SubscriptionStatusCancelled      SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired        SubscriptionStatus = "expired"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPendingPayment,
	SubscriptionStatusActive,
	SubscriptionStatusPaused,
	SubscriptionStatusCancelled,
	SubscriptionStatusExpired,
}

// liveSubscriptionStatuses count toward advertiser coverage and directory
// visibility. Cancelled and expired subscriptions never do.
var liveSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPendingPayment,
	SubscriptionStatusActive,
	SubscriptionStatusPaused,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsLive reports whether the subscription contributes to coverage.
func (s SubscriptionStatus) IsLive() bool {
	for _, candidate := range liveSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}

// LiveSubscriptionStatuses returns the statuses that count as live.
func LiveSubscriptionStatuses() []SubscriptionStatus {
	out := make([]SubscriptionStatus, len(liveSubscriptionStatuses))
	copy(out, liveSubscriptionStatuses)
	return out
}
