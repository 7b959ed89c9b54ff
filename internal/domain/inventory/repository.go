package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRepository is the catalogue store contract: items and movements are
// owned by the external store (§3 "Ownership"), so the core only ever
// talks to it through this interface, never directly to a driver. Both the
// Postgres/GORM store and the Airtable-REST store implement this.
type ItemRepository interface {
	// FindByName looks up an item by its case-insensitive name. Returns
	// shared.ErrNotFound if absent.
	FindByName(ctx context.Context, name string) (*Item, error)
	// FindByID looks up an item by its id.
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindAll returns every active item, used by the catalogue cache (C3)
	// to build its snapshot.
	FindAll(ctx context.Context) ([]*Item, error)
	// Save creates or updates an item.
	Save(ctx context.Context, item *Item) error
}

// MovementRepository persists StockMovement records.
type MovementRepository interface {
	Save(ctx context.Context, movement *StockMovement) error
	FindByBatchID(ctx context.Context, batchID string) ([]*StockMovement, error)
	// FindByItemName returns movement history for a single item, newest
	// first, used by the `audit` read-only query (§12 supplemented
	// features).
	FindByItemName(ctx context.Context, itemName string, limit int) ([]*StockMovement, error)
}

// StocktakeRepository persists InventoryStocktake audit records.
type StocktakeRepository interface {
	Save(ctx context.Context, stocktake *InventoryStocktake) error
	FindByBatchID(ctx context.Context, batchID string) ([]*InventoryStocktake, error)
}

// CatalogueSnapshot is the short-TTL snapshot of catalogue items used by the
// duplicate engine (C3, §4.3). It never participates in writes.
type CatalogueSnapshot struct {
	Items     []*Item
	FetchedAt int64 // unix seconds; callers pass in wall-clock time explicitly
}

// OnHandByName indexes the snapshot for quick lookups, keyed by normalized
// name.
func (s *CatalogueSnapshot) OnHandByName() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Items))
	for _, item := range s.Items {
		out[item.NormalizedName()] = item.OnHand
	}
	return out
}
