package enums

import "fmt"

// AdRequestStatus tracks the intake state of a prospective advertiser.
type AdRequestStatus string

const (
	AdRequestStatusPending  AdRequestStatus = "pending"
	AdRequestStatusApproved AdRequestStatus = "approved"
	AdRequestStatusRejected AdRequestStatus = "rejected"
)

var validAdRequestStatuses = []AdRequestStatus{
	AdRequestStatusPending,
	AdRequestStatusApproved,
	AdRequestStatusRejected,
}

// String implements fmt.Stringer.
func (s AdRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s AdRequestStatus) IsValid() bool {
	for _, candidate := range validAdRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAdRequestStatus converts raw input into an AdRequestStatus.
func ParseAdRequestStatus(value string) (AdRequestStatus, error) {
	for _, candidate := range validAdRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ad request status %q", value)
}
