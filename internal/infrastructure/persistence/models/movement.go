package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// StockMovement maps to the inventory.StockMovement domain entity,
// persisted under "stock_movements". Indexed by batch_id (approval lookups)
// and item_name (audit history, §12 supplemented features).
type StockMovement struct {
	BaseModel
	BatchID  string `gorm:"index"`
	ItemName string `gorm:"index"`

	MovementType       string
	Quantity           decimal.Decimal `gorm:"type:numeric"`
	Unit               string
	SignedBaseQuantity decimal.Decimal `gorm:"type:numeric"`

	Status string `gorm:"index"`

	Timestamp time.Time
	UserID    uuid.UUID
	UserName  string

	Driver       string
	FromLocation string
	ToLocation   string
	Project      string
	Note         string
	Reason       string
	Category     string
}

// TableName pins the table name explicitly.
func (StockMovement) TableName() string { return "stock_movements" }

// ToDomain converts the persistence model to the domain entity.
func (m *StockMovement) ToDomain() *inventory.StockMovement {
	movement := &inventory.StockMovement{
		BatchID:            m.BatchID,
		ItemName:           m.ItemName,
		MovementType:       inventory.MovementType(m.MovementType),
		Quantity:           m.Quantity,
		Unit:               m.Unit,
		SignedBaseQuantity: m.SignedBaseQuantity,
		Status:             inventory.MovementStatus(m.Status),
		Timestamp:          m.Timestamp,
		UserID:             m.UserID,
		UserName:           m.UserName,
		Driver:             m.Driver,
		FromLocation:       m.FromLocation,
		ToLocation:         m.ToLocation,
		Project:            m.Project,
		Note:               m.Note,
		Reason:             m.Reason,
		Category:           inventory.Category(m.Category),
	}
	movement.BaseEntity = m.BaseModel.ToDomain()
	return movement
}

// FromDomainMovement populates a persistence model from the domain entity.
func FromDomainMovement(movement *inventory.StockMovement) *StockMovement {
	m := &StockMovement{
		BatchID:            movement.BatchID,
		ItemName:           movement.ItemName,
		MovementType:       string(movement.MovementType),
		Quantity:           movement.Quantity,
		Unit:               movement.Unit,
		SignedBaseQuantity: movement.SignedBaseQuantity,
		Status:             string(movement.Status),
		Timestamp:          movement.Timestamp,
		UserID:             movement.UserID,
		UserName:           movement.UserName,
		Driver:             movement.Driver,
		FromLocation:       movement.FromLocation,
		ToLocation:         movement.ToLocation,
		Project:            movement.Project,
		Note:               movement.Note,
		Reason:             movement.Reason,
		Category:           string(movement.Category),
	}
	m.FromDomainBaseEntity(movement.BaseEntity)
	return m
}
