package inventory

import (
	"github.com/google/uuid"

	"github.com/sitestock/inventorybot/internal/domain/shared"
)

const (
	EventItemCreated       = "inventory.item.created"
	EventMovementPosted    = "inventory.movement.posted"
	EventMovementRolledBack = "inventory.movement.rolled_back"
	EventStocktakeApplied  = "inventory.stocktake.applied"
)

// ItemCreatedEvent describes an item auto-created on first mention (§3
// lifecycle). The movement executor does not construct or publish it.
type ItemCreatedEvent struct {
	shared.BaseDomainEvent
	ItemName string
	Category Category
}

// NewItemCreatedEvent builds an ItemCreatedEvent for the given item.
func NewItemCreatedEvent(itemID uuid.UUID, itemName string, category Category) *ItemCreatedEvent {
	return &ItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventItemCreated, "Item", itemID),
		ItemName:        itemName,
		Category:        category,
	}
}

// MovementPostedEvent describes a movement applied to the catalogue. The
// batch processor does not construct or publish it.
type MovementPostedEvent struct {
	shared.BaseDomainEvent
	ItemName           string
	MovementType       MovementType
	SignedBaseQuantity float64
}

// NewMovementPostedEvent builds a MovementPostedEvent for a posted movement.
func NewMovementPostedEvent(movementID uuid.UUID, itemName string, movementType MovementType, signedBaseQuantity float64) *MovementPostedEvent {
	return &MovementPostedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventMovementPosted, "StockMovement", movementID),
		ItemName:           itemName,
		MovementType:       movementType,
		SignedBaseQuantity: signedBaseQuantity,
	}
}
