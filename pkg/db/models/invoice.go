package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Invoice is the billing document for a subscription, VAT inclusive.
// Number is unique and sequential within its issue period (INV-YYYYMM-NNNN).
type Invoice struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	Number         string              `gorm:"column:number;not null;uniqueIndex:idx_invoices_number"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VATPercent     decimal.Decimal     `gorm:"column:vat_percent;type:numeric(5,2);not null"`
	VATAmount      decimal.Decimal     `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount     decimal.Decimal     `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	Status         enums.InvoiceStatus `gorm:"column:status;not null;default:'unpaid'"`
	IssuedDate     time.Time           `gorm:"column:issued_date;not null"`
	DueDate        time.Time           `gorm:"column:due_date;not null"`
	PaidDate       *time.Time          `gorm:"column:paid_date"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
