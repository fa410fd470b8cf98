package service

import (
	"testing"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
)

func TestInclusiveTax(t *testing.T) {
	tests := []struct {
		total int64
		rate  int
		want  int64
	}{
		{1100, 10, 100},
		{11000, 10, 1000},
		{1000, 10, 90}, // 1000*10/110 floored
		{108, 8, 8},
		{0, 10, 0},
		{1100, 0, 0},
	}
	for _, tt := range tests {
		if got := InclusiveTax(tt.total, tt.rate); got != tt.want {
			t.Errorf("InclusiveTax(%d, %d) = %d, want %d", tt.total, tt.rate, got, tt.want)
		}
	}
}

func TestComputeSettlementTotals(t *testing.T) {
	got := ComputeSettlementTotals(11000, 1000, 10)
	if got.Total != 10000 {
		t.Errorf("Total = %d, want 10000", got.Total)
	}
	if got.Tax != 909 { // 10000*10/110
		t.Errorf("Tax = %d, want 909", got.Tax)
	}
	if got.TaxRate != 10 {
		t.Errorf("TaxRate = %d, want 10", got.TaxRate)
	}

	// over-discount floors at zero, never negative
	got = ComputeSettlementTotals(500, 1000, 10)
	if got.Total != 0 || got.Tax != 0 {
		t.Errorf("over-discount: got total %d tax %d, want 0/0", got.Total, got.Tax)
	}
}

func TestReconcilePayments(t *testing.T) {
	lines := func(amounts ...int64) []models.PaymentLine {
		out := make([]models.PaymentLine, len(amounts))
		for i, a := range amounts {
			out[i] = models.PaymentLine{Method: "cash", Amount: a}
		}
		return out
	}

	if err := ReconcilePayments(lines(6000, 4000), 10000); err != nil {
		t.Fatalf("exact split: %v", err)
	}

	err := ReconcilePayments(lines(6000, 3000), 10000)
	if e, ok := apperr.As(err); !ok || e.Code != "payment_mismatch" {
		t.Fatalf("short payment: got %v, want payment_mismatch", err)
	}

	err = ReconcilePayments(lines(11000, -1000), 10000)
	if e, ok := apperr.As(err); !ok || e.Code != "negative_payment" {
		t.Fatalf("negative line: got %v, want negative_payment", err)
	}

	// no payments against a zero total is a valid fully-discounted sale
	if err := ReconcilePayments(nil, 0); err != nil {
		t.Fatalf("zero total: %v", err)
	}
}
