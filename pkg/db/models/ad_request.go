package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// AdRequest is a prospective advertiser's intake submission from the public
// site. Approval by an admin creates the Advertiser record.
type AdRequest struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	CompanyName string                `gorm:"column:company_name;not null"`
	ContactName string                `gorm:"column:contact_name"`
	Phone       string                `gorm:"column:phone;not null"`
	Email       string                `gorm:"column:email"`
	Sector      enums.Sector          `gorm:"column:sector;not null"`
	City        string                `gorm:"column:city;not null"`
	Status      enums.AdRequestStatus `gorm:"column:status;not null;default:'pending'"`
	Notes       string                `gorm:"column:notes"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
