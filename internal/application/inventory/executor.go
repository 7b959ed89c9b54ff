package inventory

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

// autoCreateUnitPattern extracts a trailing <number><unit> suffix from an
// item name for the auto-create policy (§4.6), e.g. "Paint 20ltrs" -> 20, ltrs.
var autoCreateUnitPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([a-zA-Z]+)\s*$`)

// MovementExecutor implements C6: per-movement validation, unit
// derivation, stock recompute and record write. It does not check an
// item's reorder or large-quantity thresholds.
type MovementExecutor struct {
	items     inventory.ItemRepository
	movements inventory.MovementRepository
	logger    *zap.Logger
}

// NewMovementExecutor constructs an executor backed by the given catalogue
// and movement repositories.
func NewMovementExecutor(items inventory.ItemRepository, movements inventory.MovementRepository, logger *zap.Logger) *MovementExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementExecutor{items: items, movements: movements, logger: logger}
}

// Execute applies a single movement to the catalogue, per the behavior
// table in §4.6. It returns the (possibly auto-created) item and any
// processing error.
func (e *MovementExecutor) Execute(ctx context.Context, entry ParsedEntry, role authz.Role) (*inventory.Item, *inventory.ProcessingError) {
	item, err := e.items.FindByName(ctx, entry.ItemName)
	notFound := err != nil

	switch entry.MovementType {
	case inventory.MovementIN:
		if notFound {
			item = e.autoCreate(entry)
			if saveErr := e.items.Save(ctx, item); saveErr != nil {
				return nil, inventory.NewProcessingError(inventory.CategoryDatabase, inventory.SeverityCritical, saveErr.Error())
			}
		}
		e.logUnitMismatch(ctx, item, entry)
		// on_hand is written exactly once, by Apply — Execute only validates
		// and (if needed) auto-creates the catalogue row.
		return item, nil

	case inventory.MovementOUT:
		if notFound {
			return nil, inventory.NewProcessingError(inventory.CategoryValidation, inventory.SeverityError,
				fmt.Sprintf("item %q does not exist", entry.ItemName))
		}
		e.logUnitMismatch(ctx, item, entry)
		if entry.Quantity.GreaterThan(item.OnHand) && !authz.IsAdmin(role) {
			return nil, inventory.NewProcessingError(inventory.CategoryValidation, inventory.SeverityError,
				fmt.Sprintf("insufficient stock for %q: requested %s, on hand %s", entry.ItemName, entry.Quantity.String(), item.OnHand.String()))
		}
		// Outflows always require approval: the caller (batch processor /
		// approval controller) is responsible for staging this as
		// REQUESTED and only calling Execute again on approval to apply it.
		return item, nil

	case inventory.MovementADJUST:
		if notFound {
			return nil, inventory.NewProcessingError(inventory.CategoryValidation, inventory.SeverityError,
				fmt.Sprintf("item %q does not exist", entry.ItemName))
		}
		e.logUnitMismatch(ctx, item, entry)
		return item, nil

	default:
		return nil, inventory.NewProcessingError(inventory.CategoryValidation, inventory.SeverityError, "unknown movement type")
	}
}

// Apply commits a movement's effect on-hand and persists both the item and
// the movement record as POSTED. Called once a movement has been approved.
func (e *MovementExecutor) Apply(ctx context.Context, item *inventory.Item, movement *inventory.StockMovement) *inventory.ProcessingError {
	item.OnHand = item.OnHand.Add(movement.SignedBaseQuantity)
	if err := e.items.Save(ctx, item); err != nil {
		return inventory.NewProcessingError(inventory.CategoryDatabase, inventory.SeverityCritical, err.Error())
	}
	if err := movement.Post(); err != nil {
		return inventory.NewProcessingError(inventory.CategoryValidation, inventory.SeverityError, err.Error())
	}
	if err := e.movements.Save(ctx, movement); err != nil {
		// The movement record was not written: undo this movement's on-hand
		// change so a failed entry leaves the item as it found it.
		item.OnHand = item.OnHand.Sub(movement.SignedBaseQuantity)
		if revertErr := e.items.Save(ctx, item); revertErr != nil {
			logger.WithLogger(ctx, e.logger).Error("failed to revert on-hand after movement save failure",
				zap.String("item", item.Name), zap.Error(revertErr))
		}
		return inventory.NewProcessingError(inventory.CategoryDatabase, inventory.SeverityCritical, err.Error())
	}
	return nil
}

// Compensate undoes a previously-applied movement's on-hand effect, used by
// the batch processor's rollback pass (§4.7).
func (e *MovementExecutor) Compensate(ctx context.Context, itemName string, movement *inventory.StockMovement) error {
	item, err := e.items.FindByName(ctx, itemName)
	if err != nil {
		return err
	}
	item.OnHand = item.OnHand.Add(movement.CompensatingDelta())
	return e.items.Save(ctx, item)
}

// logUnitMismatch implements the unit-conversion stub named in §4.6: if the
// entered unit differs from the item's unit_type, the quantity is used
// as-is and a warning is logged. Logging goes through the context logger so
// the chat_id/user_id/request_id/trace_id the caller attached to ctx are
// carried onto the line.
func (e *MovementExecutor) logUnitMismatch(ctx context.Context, item *inventory.Item, entry ParsedEntry) {
	if !strings.EqualFold(entry.Unit, item.UnitType) {
		logger.WithLogger(ctx, e.logger).Warn("entered unit differs from item's base unit, using entered quantity as-is",
			zap.String("item", item.Name), zap.String("entered_unit", entry.Unit), zap.String("base_unit", item.UnitType))
	}
}

// autoCreate builds a new Item from an IN entry whose item does not yet
// exist, per the auto-create policy in §4.6: unit-size/unit-type extracted
// from a trailing <number><unit> suffix in the name; category inferred by
// the closed keyword heuristic.
func (e *MovementExecutor) autoCreate(entry ParsedEntry) *inventory.Item {
	item := inventory.NewItem(entry.ItemName)
	item.Category = inventory.InferCategory(entry.ItemName)

	if m := autoCreateUnitPattern.FindStringSubmatch(entry.ItemName); m != nil {
		if size, err := strconv.ParseFloat(m[1], 64); err == nil && size > 0 {
			item.UnitSize = decimal.NewFromFloat(size)
			item.UnitType = strings.ToLower(m[2])
		}
	}

	return item
}
