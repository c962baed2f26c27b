package accounting

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SumMovements returns the exact signed total of the given movements.
func SumMovements(movements []domain.LedgerMovement) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.Amount)
	}
	return sum
}

// SumRows returns the exact signed total of statement rows.
func SumRows(rows []domain.StatementRow) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Amount)
	}
	return sum
}

// TotalDifference is the signed sum of the declared difference amounts.
func TotalDifference(justifications []domain.DifferenceJustification) decimal.Decimal {
	sum := decimal.Zero
	for _, j := range justifications {
		sum = sum.Add(j.Amount)
	}
	return sum
}

// AdjustmentFor derives the adjustment type and positive amount for a signed differential.
// ok is false when the differential is zero and no adjustment should exist.
func AdjustmentFor(totalDifference decimal.Decimal) (adjType domain.AdjustmentType, amount decimal.Decimal, ok bool) {
	switch totalDifference.Sign() {
	case 1:
		return domain.AdjustmentIngreso, totalDifference, true
	case -1:
		return domain.AdjustmentEgreso, totalDifference.Abs(), true
	}
	return "", decimal.Zero, false
}

// ApplyMovement returns the running balance after posting amount.
func ApplyMovement(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(amount)
}
