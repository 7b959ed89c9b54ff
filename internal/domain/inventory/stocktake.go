package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStocktake is an audit record of a counted quantity, applied with
// cumulative-add semantics (the counted quantity is added to existing
// on_hand, not a replacement) per §3/GLOSSARY.
type InventoryStocktake struct {
	BatchID  string
	Date     string // ISO date, YYYY-MM-DD
	ItemName string

	CountedQty      decimal.Decimal
	PreviousOnHand  decimal.Decimal
	NewOnHand       decimal.Decimal

	AppliedAt time.Time
	AppliedBy string

	Discrepancy *decimal.Decimal
}

// NewInventoryStocktake records a stock-take line with the cumulative
// semantics and discrepancy invariant named in §3:
// new_on_hand = previous_on_hand + counted_qty;
// discrepancy = counted_qty - previous_on_hand.
func NewInventoryStocktake(batchID, date, itemName string, countedQty, previousOnHand decimal.Decimal, appliedBy string) *InventoryStocktake {
	newOnHand := previousOnHand.Add(countedQty)
	discrepancy := countedQty.Sub(previousOnHand)
	return &InventoryStocktake{
		BatchID:        batchID,
		Date:           date,
		ItemName:       itemName,
		CountedQty:     countedQty,
		PreviousOnHand: previousOnHand,
		NewOnHand:      newOnHand,
		AppliedAt:      time.Now(),
		AppliedBy:      appliedBy,
		Discrepancy:    &discrepancy,
	}
}
