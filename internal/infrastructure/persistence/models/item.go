package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// Item maps to the inventory.Item domain entity. Persisted under the
// "items" table; Name carries a unique index since lookups are always
// by case-insensitive name (NormalizedName), never by a caller-supplied id.
type Item struct {
	BaseModel
	Name              string          `gorm:"not null;uniqueIndex"`
	OnHand            decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	UnitSize          decimal.Decimal `gorm:"type:numeric;not null;default:1"`
	UnitType          string          `gorm:"not null;default:piece"`
	Category          string          `gorm:"not null;index"`
	Location          string
	ReorderThreshold  *decimal.Decimal `gorm:"type:numeric"`
	LargeQtyThreshold *decimal.Decimal `gorm:"type:numeric"`
	IsActive          bool             `gorm:"not null;default:true;index"`
	LastStocktakeDate *time.Time
	LastStocktakeBy   string
}

// TableName pins the table name explicitly rather than relying on GORM's
// pluralization, matching the teacher's persistence models.
func (Item) TableName() string { return "items" }

// ToDomain converts the persistence model to the domain entity.
func (m *Item) ToDomain() *inventory.Item {
	item := &inventory.Item{
		Name:              m.Name,
		OnHand:            m.OnHand,
		UnitSize:          m.UnitSize,
		UnitType:          m.UnitType,
		Category:          inventory.Category(m.Category),
		Location:          m.Location,
		ReorderThreshold:  m.ReorderThreshold,
		LargeQtyThreshold: m.LargeQtyThreshold,
		IsActive:          m.IsActive,
		LastStocktakeDate: m.LastStocktakeDate,
		LastStocktakeBy:   m.LastStocktakeBy,
	}
	item.BaseEntity = m.BaseModel.ToDomain()
	return item
}

// FromDomainItem populates a persistence model from the domain entity.
func FromDomainItem(item *inventory.Item) *Item {
	m := &Item{
		Name:              item.Name,
		OnHand:            item.OnHand,
		UnitSize:          item.UnitSize,
		UnitType:          item.UnitType,
		Category:          string(item.Category),
		Location:          item.Location,
		ReorderThreshold:  item.ReorderThreshold,
		LargeQtyThreshold: item.LargeQtyThreshold,
		IsActive:          item.IsActive,
		LastStocktakeDate: item.LastStocktakeDate,
		LastStocktakeBy:   item.LastStocktakeBy,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	return m
}
