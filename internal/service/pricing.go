package service

import (
	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
)

// SettlementTotals is the money breakdown of a tax-inclusive sale.
type SettlementTotals struct {
	Subtotal int64
	Discount int64
	Total    int64
	TaxRate  int
	Tax      int64
}

// InclusiveTax backs the tax amount out of an already-tax-inclusive total:
// tax = total * rate / (100 + rate), floored. This is intentionally not the
// exclusive subtotal*rate/100 formula; sticker prices include tax, so the
// total must not move when the rate changes for later sales.
func InclusiveTax(total int64, ratePercent int) int64 {
	if total <= 0 || ratePercent <= 0 {
		return 0
	}
	return total * int64(ratePercent) / int64(100+ratePercent)
}

// ComputeSettlementTotals applies the discount (floored at zero) and derives
// the inclusive tax at the given snapshot rate.
func ComputeSettlementTotals(subtotal, discount int64, ratePercent int) SettlementTotals {
	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return SettlementTotals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		TaxRate:  ratePercent,
		Tax:      InclusiveTax(total, ratePercent),
	}
}

// ReconcilePayments verifies the itemized payment amounts sum to the total
// exactly. Any mismatch is a hard validation failure, not a rounding
// tolerance.
func ReconcilePayments(payments []models.PaymentLine, total int64) error {
	var sum int64
	for _, p := range payments {
		if p.Amount < 0 {
			return apperr.Validation("negative_payment", "payment amounts must be non-negative")
		}
		sum += p.Amount
	}
	if sum != total {
		return apperr.Validation("payment_mismatch", "payment lines do not sum to the sale total")
	}
	return nil
}
