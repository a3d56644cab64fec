package invoices

import (
	"fmt"
	"time"
)

// PeriodFor returns the numbering period (YYYYMM, UTC) an invoice issued at t
// belongs to.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("200601")
}

// FormatNumber renders the canonical invoice number for a period and
// sequence, e.g. INV-202608-0001. Sequences past 9999 keep their natural
// width rather than wrapping.
func FormatNumber(period string, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", period, seq)
}
