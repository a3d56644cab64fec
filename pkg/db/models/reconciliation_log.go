package models

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationLog records a single field correction made by the
// reconciliation engine (old value differed from the recomputed one).
// RunID groups every correction made by one engine invocation.
type ReconciliationLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunID      uuid.UUID `gorm:"column:run_id;type:uuid;not null;index"`
	EntityType string    `gorm:"column:entity_type;not null"` // subscription | invoice
	EntityID   uuid.UUID `gorm:"column:entity_id;type:uuid;not null;index"`
	Field      string    `gorm:"column:field;not null"`
	OldValue   string    `gorm:"column:old_value"`
	NewValue   string    `gorm:"column:new_value"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
