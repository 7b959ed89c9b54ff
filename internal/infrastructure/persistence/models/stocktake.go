package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// InventoryStocktake maps to the inventory.InventoryStocktake domain value,
// persisted under "inventory_stocktakes". The domain type carries no
// identity of its own; BaseModel's ID/timestamps exist purely as the
// storage row's primary key.
type InventoryStocktake struct {
	BaseModel
	BatchID  string `gorm:"index"`
	Date     string
	ItemName string `gorm:"index"`

	CountedQty     decimal.Decimal `gorm:"type:numeric"`
	PreviousOnHand decimal.Decimal `gorm:"type:numeric"`
	NewOnHand      decimal.Decimal `gorm:"type:numeric"`

	AppliedAt time.Time
	AppliedBy string

	Discrepancy *decimal.Decimal `gorm:"type:numeric"`
}

// TableName pins the table name explicitly.
func (InventoryStocktake) TableName() string { return "inventory_stocktakes" }

// ToDomain converts the persistence model to the domain value.
func (m *InventoryStocktake) ToDomain() *inventory.InventoryStocktake {
	return &inventory.InventoryStocktake{
		BatchID:        m.BatchID,
		Date:           m.Date,
		ItemName:       m.ItemName,
		CountedQty:     m.CountedQty,
		PreviousOnHand: m.PreviousOnHand,
		NewOnHand:      m.NewOnHand,
		AppliedAt:      m.AppliedAt,
		AppliedBy:      m.AppliedBy,
		Discrepancy:    m.Discrepancy,
	}
}

// FromDomainStocktake populates a persistence model from the domain value.
func FromDomainStocktake(s *inventory.InventoryStocktake) *InventoryStocktake {
	return &InventoryStocktake{
		BatchID:        s.BatchID,
		Date:           s.Date,
		ItemName:       s.ItemName,
		CountedQty:     s.CountedQty,
		PreviousOnHand: s.PreviousOnHand,
		NewOnHand:      s.NewOnHand,
		AppliedAt:      s.AppliedAt,
		AppliedBy:      s.AppliedBy,
		Discrepancy:    s.Discrepancy,
	}
}
