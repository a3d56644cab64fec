package enums

import "fmt"

// Sector identifies the service vertical an advertiser operates in.
type Sector string

const (
	SectorMovers      Sector = "movers"
	SectorCleaning    Sector = "cleaning"
	SectorWaterLeaks  Sector = "water-leaks"
	SectorPestControl Sector = "pest-control"
)

var validSectors = []Sector{
	SectorMovers,
	SectorCleaning,
	SectorWaterLeaks,
	SectorPestControl,
}

// String implements fmt.Stringer.
func (s Sector) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s Sector) IsValid() bool {
	for _, candidate := range validSectors {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSector converts raw input into a Sector.
func ParseSector(value string) (Sector, error) {
	for _, candidate := range validSectors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sector %q", value)
}

// Sectors returns every recognized sector.
func Sectors() []Sector {
	out := make([]Sector, len(validSectors))
	copy(out, validSectors)
	return out
}
