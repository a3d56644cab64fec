package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Payment is a single money-received event. Rows are immutable once created;
// corrections are new compensating payments, never in-place edits, so the
// ledger stays auditable. InvoiceID is a weak reference; the payment's owner
// is always its subscription.
type Payment struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	InvoiceID      *uuid.UUID          `gorm:"column:invoice_id;type:uuid;index"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentDate    time.Time           `gorm:"column:payment_date;not null"`
	Method         enums.PaymentMethod `gorm:"column:method;not null"`
	Notes          string              `gorm:"column:notes"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
