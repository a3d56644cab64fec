package enums

import "fmt"

// AdvertiserStatus tracks whether an advertiser is shown in the directory.
type AdvertiserStatus string

const (
	AdvertiserStatusActive   AdvertiserStatus = "active"
	AdvertiserStatusInactive AdvertiserStatus = "inactive"
	AdvertiserStatusPending  AdvertiserStatus = "pending"
)

var validAdvertiserStatuses = []AdvertiserStatus{
	AdvertiserStatusActive,
	AdvertiserStatusInactive,
	AdvertiserStatusPending,
}

// String implements fmt.Stringer.
func (s AdvertiserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s AdvertiserStatus) IsValid() bool {
	for _, candidate := range validAdvertiserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAdvertiserStatus converts raw input into an AdvertiserStatus.
func ParseAdvertiserStatus(value string) (AdvertiserStatus, error) {
	for _, candidate := range validAdvertiserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid advertiser status %q", value)
}
