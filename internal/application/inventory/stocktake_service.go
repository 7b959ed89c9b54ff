package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

// StocktakeResult is the outcome of applying one parsed stock-take.
type StocktakeResult struct {
	BatchID    string
	Applied    []*inventory.InventoryStocktake
	Failed     []inventory.EntryError
	Successful int
	Total      int
}

// StocktakeService applies cumulative stock-take entries (§3's "new_on_hand
// = previous_on_hand + counted_qty" invariant) against the catalogue,
// recording one InventoryStocktake audit row per counted line. Unlike the
// batch processor (C7), there is no rollback pass: stock-takes are
// independent per-line and a single failure does not affect the others.
type StocktakeService struct {
	items      inventory.ItemRepository
	stocktakes inventory.StocktakeRepository
	logger     *zap.Logger
}

// NewStocktakeService constructs a stock-take service.
func NewStocktakeService(items inventory.ItemRepository, stocktakes inventory.StocktakeRepository, logger *zap.Logger) *StocktakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StocktakeService{items: items, stocktakes: stocktakes, logger: logger}
}

// Apply applies every entry in a parsed stock-take against the catalogue,
// auto-creating items that don't yet exist (mirroring the IN movement's
// auto-create policy, since a first-ever count is equivalent to
// discovering a new catalogue row).
func (s *StocktakeService) Apply(ctx context.Context, batchID string, stocktake *ParsedStocktake, loggedBy string) *StocktakeResult {
	result := &StocktakeResult{BatchID: batchID, Total: len(stocktake.Entries)}

	for idx, entry := range stocktake.Entries {
		item, err := s.items.FindByName(ctx, entry.ItemName)
		if err != nil {
			item = inventory.NewItem(entry.ItemName)
			item.Category = inventory.InferCategory(entry.ItemName)
			if entry.Unit != "" {
				item.UnitType = entry.Unit
			}
		}

		previousOnHand := item.OnHand
		record := inventory.NewInventoryStocktake(batchID, stocktake.Date, entry.ItemName, entry.CountedQty, previousOnHand, loggedBy)

		item.OnHand = record.NewOnHand
		now := time.Now()
		item.LastStocktakeDate = &now
		item.LastStocktakeBy = loggedBy

		if saveErr := s.items.Save(ctx, item); saveErr != nil {
			result.Failed = append(result.Failed, inventory.EntryError{
				EntryIndex: idx,
				ItemName:   entry.ItemName,
				Category:   inventory.CategoryDatabase,
				Severity:   inventory.SeverityCritical,
				Message:    saveErr.Error(),
				Suggestion: inventory.SuggestionFor(saveErr.Error()),
			})
			continue
		}

		if saveErr := s.stocktakes.Save(ctx, record); saveErr != nil {
			logger.WithLogger(ctx, s.logger).Warn("stock-take applied to catalogue but audit record failed to persist",
				zap.String("item", entry.ItemName), zap.Error(saveErr))
		}

		result.Applied = append(result.Applied, record)
		result.Successful++
	}

	return result
}
