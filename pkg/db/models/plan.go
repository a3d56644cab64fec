package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Plan is a purchasable (sector, coverage, duration) tier. The stored price
// may diverge from the canonical policy price (custom pricing); the audit
// tooling flags divergence instead of assuming it.
type Plan struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Sector        enums.Sector        `gorm:"column:sector;not null"`
	CoverageScope enums.CoverageScope `gorm:"column:coverage_scope;not null"`
	City          *string             `gorm:"column:city"` // set iff coverage_scope = city
	DurationDays  int                 `gorm:"column:duration_days;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Active        bool                `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
