package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Advertiser is a company listed in the directory. CoverageType and
// CoverageCities are derived from live subscriptions by the coverage
// aggregator; admin edits to them are overwritten on the next refresh.
type Advertiser struct {
	ID             uuid.UUID              `gorm:"type:uuid;primaryKey"`
	CompanyName    string                 `gorm:"column:company_name;not null"`
	ContactName    string                 `gorm:"column:contact_name"`
	Phone          string                 `gorm:"column:phone;not null"`
	WhatsApp       string                 `gorm:"column:whatsapp"`
	Email          string                 `gorm:"column:email"`
	Sector         enums.Sector           `gorm:"column:sector;not null"`
	Status         enums.AdvertiserStatus `gorm:"column:status;not null;default:'pending'"`
	CoverageType   enums.CoverageScope    `gorm:"column:coverage_type;not null;default:'city'"`
	CoverageCities pq.StringArray         `gorm:"column:coverage_cities;type:text[];default:ARRAY[]::text[]"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
