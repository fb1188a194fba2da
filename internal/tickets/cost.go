package tickets

import "github.com/shopspring/decimal"

// LineTotal computes quantity × unit price for one part row.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// RecalculateActualCost recomputes the billable total from the parts
// sub-ledger and the labour charge. Only approved parts count, and parts
// consumed under warranty are excluded from the customer bill. Discount is a
// separate field applied at billing time, never folded in here.
func RecalculateActualCost(parts []PartUsage, labourCharge decimal.Decimal) decimal.Decimal {
	total := labourCharge
	for _, p := range parts {
		if !p.IsApproved || p.WarrantyExempt() {
			continue
		}
		total = total.Add(p.TotalPrice)
	}
	return total
}

// TotalPaid sums collected payment entries plus the advance-payment field.
// ProcessRefund uses it to size the refundable amount.
func TotalPaid(payments []PaymentEntry, advance decimal.Decimal) decimal.Decimal {
	total := advance
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
