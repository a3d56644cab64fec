package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Subscription is an advertiser's purchase of a plan for a date range.
// PaidAmount, RemainingAmount and PaymentStatus are reconciliation targets:
// every write path re-derives them from the payment ledger rather than
// trusting client-supplied values.
type Subscription struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey"`
	AdvertiserID    uuid.UUID                `gorm:"column:advertiser_id;type:uuid;not null;index"`
	PlanID          uuid.UUID                `gorm:"column:plan_id;type:uuid;not null;index"`
	CoverageScope   enums.CoverageScope      `gorm:"column:coverage_scope;not null"`
	City            *string                  `gorm:"column:city"`
	StartDate       time.Time                `gorm:"column:start_date;not null"`
	EndDate         time.Time                `gorm:"column:end_date;not null"`
	BasePrice       decimal.Decimal          `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountType    enums.DiscountType       `gorm:"column:discount_type;not null;default:'amount'"`
	DiscountValue   decimal.Decimal          `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal          `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount      decimal.Decimal          `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	RemainingAmount decimal.Decimal          `gorm:"column:remaining_amount;type:numeric(12,2);not null;default:0"`
	Status          enums.SubscriptionStatus `gorm:"column:status;not null;default:'pending_payment'"`
	PaymentStatus   enums.PaymentStatus      `gorm:"column:payment_status;not null;default:'pending'"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
