package tickets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func approvedPart(method ApprovalMethod, total string) PartUsage {
	return PartUsage{IsApproved: true, ApprovalMethod: &method, TotalPrice: money(total)}
}

func TestRecalculateActualCost(t *testing.T) {
	labour := money("100")

	// Two tagged lines of 50 each plus one approved extra spare of 30.
	parts := []PartUsage{
		approvedPart(ApprovalTagged, "50"),
		approvedPart(ApprovalTagged, "50"),
	}
	require.True(t, money("200").Equal(RecalculateActualCost(parts, labour)))

	parts = append(parts, approvedPart(ApprovalCustomer, "30"))
	require.True(t, money("230").Equal(RecalculateActualCost(parts, labour)))

	// Unapproved lines never count.
	parts = append(parts, PartUsage{TotalPrice: money("999")})
	require.True(t, money("230").Equal(RecalculateActualCost(parts, labour)))

	// Warranty consumption deducts stock elsewhere but is never billed.
	parts = append(parts, approvedPart(ApprovalWarranty, "75"))
	require.True(t, money("230").Equal(RecalculateActualCost(parts, labour)))
}

func TestRecalculateActualCostEmptyLedger(t *testing.T) {
	require.True(t, money("40").Equal(RecalculateActualCost(nil, money("40"))))
	require.True(t, RecalculateActualCost(nil, money("0")).IsZero())
}

func TestLineTotal(t *testing.T) {
	require.True(t, money("149.97").Equal(LineTotal(3, money("49.99"))))
	require.True(t, LineTotal(5, money("0")).IsZero())
}

func TestTotalPaid(t *testing.T) {
	payments := []PaymentEntry{
		{Amount: money("120")},
		{Amount: money("80.50")},
	}
	require.True(t, money("250.50").Equal(TotalPaid(payments, money("50"))))
	require.True(t, money("50").Equal(TotalPaid(nil, money("50"))))
}
