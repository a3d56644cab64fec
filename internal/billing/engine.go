package billing

import (
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
)

// Epsilon absorbs floating rounding when comparing monetary values: anything
// within 0.01 of settled counts as settled.
var Epsilon = decimal.RequireFromString("0.01")

// FieldChange records one stored value the engine corrected.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// SubscriptionReconciliation is the recomputed financial state of a
// subscription. Changes is empty when the stored fields already agreed with
// the payment ledger.
type SubscriptionReconciliation struct {
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	PaymentStatus   enums.PaymentStatus
	Changes         []FieldChange
}

// InvoiceReconciliation is the recomputed settlement state of an invoice.
// SettledNow is set when this run moved the invoice into paid, so the caller
// can stamp paid_date.
type InvoiceReconciliation struct {
	PaidAmount decimal.Decimal
	Status     enums.InvoiceStatus
	SettledNow bool
	Changes    []FieldChange
}

// ReconcileSubscription recomputes paid/remaining/payment_status from the
// full payment ledger of the subscription. It is pure and idempotent:
// running it twice over the same inputs yields identical output, and the
// remaining amount is never negative.
func ReconcileSubscription(sub *models.Subscription, payments []models.Payment) SubscriptionReconciliation {
	actualPaid := sumAmounts(payments)

	remaining := sub.TotalAmount.Sub(actualPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	remaining = remaining.Round(2)

	result := SubscriptionReconciliation{
		PaidAmount:      actualPaid,
		RemainingAmount: remaining,
		PaymentStatus:   DerivePaymentStatus(actualPaid, remaining),
	}

	result.Changes = appendMoneyChange(result.Changes, "paid_amount", sub.PaidAmount, result.PaidAmount)
	result.Changes = appendMoneyChange(result.Changes, "remaining_amount", sub.RemainingAmount, result.RemainingAmount)
	if sub.PaymentStatus != result.PaymentStatus {
		result.Changes = append(result.Changes, FieldChange{
			Field:    "payment_status",
			OldValue: string(sub.PaymentStatus),
			NewValue: string(result.PaymentStatus),
		})
	}

	return result
}

// DerivePaymentStatus applies the settlement rule: paid when the remainder is
// within epsilon of zero, partial when anything was received, else pending.
func DerivePaymentStatus(paid, remaining decimal.Decimal) enums.PaymentStatus {
	if remaining.LessThanOrEqual(Epsilon) {
		return enums.PaymentStatusPaid
	}
	if paid.GreaterThan(decimal.Zero) {
		return enums.PaymentStatusPartial
	}
	return enums.PaymentStatusPending
}

// ReconcileInvoice recomputes an invoice's settlement from the payments
// linked to it directly and from its subscription's payments. The engine
// takes the larger of the two sums: payments are often recorded against the
// subscription without being tagged with the invoice, and undercounting
// would wrongly demote paid invoices.
//
// Cancelled invoices are left untouched. An overdue invoice stays overdue
// unless the recomputation settles it; the overdue transition itself is
// time-based and owned by the batch job, not this engine.
func ReconcileInvoice(inv *models.Invoice, directPayments, subscriptionPayments []models.Payment) InvoiceReconciliation {
	if inv.Status == enums.InvoiceStatusCancelled {
		return InvoiceReconciliation{PaidAmount: inv.PaidAmount, Status: inv.Status}
	}

	effectivePaid := decimal.Max(sumAmounts(directPayments), sumAmounts(subscriptionPayments))

	status := deriveInvoiceStatus(inv.TotalAmount, effectivePaid)
	if status != enums.InvoiceStatusPaid && inv.Status == enums.InvoiceStatusOverdue {
		status = enums.InvoiceStatusOverdue
	}

	result := InvoiceReconciliation{
		PaidAmount: effectivePaid,
		Status:     status,
		SettledNow: status == enums.InvoiceStatusPaid && inv.Status != enums.InvoiceStatusPaid,
	}

	result.Changes = appendMoneyChange(result.Changes, "paid_amount", inv.PaidAmount, result.PaidAmount)
	if inv.Status != result.Status {
		result.Changes = append(result.Changes, FieldChange{
			Field:    "status",
			OldValue: string(inv.Status),
			NewValue: string(result.Status),
		})
	}

	return result
}

func deriveInvoiceStatus(total, effectivePaid decimal.Decimal) enums.InvoiceStatus {
	if effectivePaid.GreaterThanOrEqual(total.Sub(Epsilon)) {
		return enums.InvoiceStatusPaid
	}
	if effectivePaid.GreaterThan(decimal.Zero) {
		return enums.InvoiceStatusPartial
	}
	return enums.InvoiceStatusUnpaid
}

func sumAmounts(payments []models.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, payment := range payments {
		sum = sum.Add(payment.Amount)
	}
	return sum.Round(2)
}

func appendMoneyChange(changes []FieldChange, field string, oldValue, newValue decimal.Decimal) []FieldChange {
	if oldValue.Equal(newValue) {
		return changes
	}
	return append(changes, FieldChange{
		Field:    field,
		OldValue: oldValue.StringFixed(2),
		NewValue: newValue.StringFixed(2),
	})
}
