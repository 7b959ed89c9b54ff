package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

// BatchProcessor implements C7: orchestrate C4's parsed output through C6,
// collect before-levels, produce per-entry outcomes, roll back on critical
// failure.
type BatchProcessor struct {
	items    inventory.ItemRepository
	executor *MovementExecutor
	logger   *zap.Logger
}

// NewBatchProcessor constructs a batch processor.
func NewBatchProcessor(items inventory.ItemRepository, executor *MovementExecutor, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{items: items, executor: executor, logger: logger}
}

// SnapshotBeforeLevels reads current on-hand for every distinct item
// referenced by entries, used to populate BatchApproval.BeforeLevels at
// stage time (§4.7 step 2).
func (p *BatchProcessor) SnapshotBeforeLevels(ctx context.Context, entries []ParsedEntry) map[string]decimal.Decimal {
	levels := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	for _, entry := range entries {
		key := inventory.NormalizeName(entry.ItemName)
		if seen[key] {
			continue
		}
		seen[key] = true
		if item, err := p.items.FindByName(ctx, entry.ItemName); err == nil {
			levels[key] = item.OnHand
		} else {
			levels[key] = decimal.Zero
		}
	}
	return levels
}

// Apply runs the full sequence in §4.7: populate unit metadata (via the
// executor's Execute call, which auto-creates/validates each item),
// snapshot already taken by the caller, apply movements in order, and roll
// back on a critical failure.
func (p *BatchProcessor) Apply(ctx context.Context, batchID string, entries []ParsedEntry, role authz.Role, beforeLevels map[string]decimal.Decimal) *BatchResult {
	result := &BatchResult{
		BatchID:      batchID,
		Total:        len(entries),
		BeforeLevels: beforeLevels,
		StartedAt:    time.Now(),
	}

	type applied struct {
		entry    ParsedEntry
		item     *inventory.Item
		movement *inventory.StockMovement
	}
	var succeeded []applied
	criticalFailure := false

	for _, entry := range entries {
		item, procErr := p.executor.Execute(ctx, entry, role)
		if procErr != nil {
			result.Outcomes = append(result.Outcomes, EntryOutcome{
				ItemName: entry.ItemName, MovementType: entry.MovementType, Success: false, Error: procErr,
			})
			result.Failed++
			if procErr.Severity == inventory.SeverityCritical {
				criticalFailure = true
			}
			continue
		}

		movement := inventory.NewStockMovement(entry.ItemName, entry.MovementType, entry.Quantity, entry.Unit)
		movement.BatchID = batchID
		movement.Project = entry.Project
		movement.Driver = entry.Driver
		movement.FromLocation = entry.From
		movement.ToLocation = entry.To
		movement.Note = entry.Note
		movement.Category = item.Category

		if applyErr := p.executor.Apply(ctx, item, movement); applyErr != nil {
			result.Outcomes = append(result.Outcomes, EntryOutcome{
				ItemName: entry.ItemName, MovementType: entry.MovementType, Success: false, Error: applyErr,
			})
			result.Failed++
			if applyErr.Severity == inventory.SeverityCritical {
				criticalFailure = true
			}
			continue
		}

		succeeded = append(succeeded, applied{entry: entry, item: item, movement: movement})
		result.Outcomes = append(result.Outcomes, EntryOutcome{
			ItemName: entry.ItemName, MovementType: entry.MovementType, Success: true,
		})
		result.Successful++
	}

	if criticalFailure && len(succeeded) > 0 {
		result.RolledBack = true
		for _, s := range succeeded {
			if err := p.executor.Compensate(ctx, s.entry.ItemName, s.movement); err != nil {
				result.RollbackFailed = true
				result.Outcomes = append(result.Outcomes, EntryOutcome{
					ItemName: s.entry.ItemName, MovementType: s.entry.MovementType, Success: false,
					Error: inventory.NewProcessingError(inventory.CategoryRollback, inventory.SeverityCritical,
						fmt.Sprintf("rollback failed for %q: %v — manual reconciliation required", s.entry.ItemName, err)),
				})
				logger.WithLogger(ctx, p.logger).Error("rollback failed, manual reconciliation required",
					zap.String("item", s.entry.ItemName), zap.Error(err))
			}
		}
	}

	result.AfterLevels = p.SnapshotBeforeLevels(ctx, entries)
	result.SuccessRate = successRate(result.Successful, result.Total)
	result.FinishedAt = time.Now()
	result.Summary = summarize(result)
	return result
}

func successRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

func summarize(r *BatchResult) string {
	summary := fmt.Sprintf("%d/%d succeeded (%.0f%%)", r.Successful, r.Total, r.SuccessRate)
	if r.RolledBack {
		if r.RollbackFailed {
			summary += "; rollback attempted but failed — manual reconciliation required"
		} else {
			summary += "; rolled back due to a critical failure"
		}
	}
	return summary
}

// NewBatchID generates a fresh batch identifier.
func NewBatchID() string {
	return uuid.New().String()
}
