package models

import "time"

// InvoiceCounter allocates per-period invoice sequence numbers. The row is
// bumped inside the numbering transaction so concurrent invoice creation in
// the same period never hands out the same sequence.
type InvoiceCounter struct {
	Period    string    `gorm:"column:period;primaryKey"` // YYYYMM
	NextSeq   int       `gorm:"column:next_seq;not null;default:1"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
