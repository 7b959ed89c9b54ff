package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// DuplicatePolicy controls how the duplicate engine's matches are acted
// upon by callers, per §4.5.
type DuplicatePolicy struct {
	// AutoMergeExact merges EXACT matches automatically (quantity added to
	// the existing item); SIMILAR still requires user confirmation.
	AutoMergeExact bool
	// RequireUserConfirmation parks SIMILAR-and-above matches in a
	// pending-confirmation set instead of proceeding unattended.
	RequireUserConfirmation bool
}

// DefaultDuplicatePolicy matches the source's default behavior.
func DefaultDuplicatePolicy() DuplicatePolicy {
	return DuplicatePolicy{AutoMergeExact: true, RequireUserConfirmation: true}
}

// DuplicateEngine implements C5: for each candidate entry it computes
// similarity against every cached catalogue item, classifies the best
// match, and for outflows checks stock availability.
type DuplicateEngine struct {
	logger *zap.Logger
}

// NewDuplicateEngine constructs a duplicate engine.
func NewDuplicateEngine(logger *zap.Logger) *DuplicateEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateEngine{logger: logger}
}

// Analyze scans a parsed batch against the cached catalogue, producing a
// DuplicateAnalysis with one match per candidate that scores ≥ 0.5, plus
// availability-shortfall errors for outflows.
func (e *DuplicateEngine) Analyze(_ context.Context, entries []ParsedEntry, catalogue []*inventory.Item, movementType inventory.MovementType) DuplicateAnalysis {
	var analysis DuplicateAnalysis

	for idx, entry := range entries {
		match, found := inventory.BestMatch(entry.ItemName, catalogue, entry.BatchNumber, idx)
		if !found {
			continue
		}

		if movementType == inventory.MovementOUT && (match.Kind == inventory.MatchExact || match.Kind == inventory.MatchSimilar) {
			if entry.Quantity.GreaterThan(match.Existing.OnHand) {
				shortfall, _ := entry.Quantity.Sub(match.Existing.OnHand).Float64()
				match.Shortfall = shortfall
				analysis.ShortfallErrors = append(analysis.ShortfallErrors, inventory.EntryError{
					EntryIndex: idx,
					ItemName:   entry.ItemName,
					Category:   inventory.CategoryValidation,
					Severity:   inventory.SeverityError,
					Message:    fmt.Sprintf("entry %d: requested %s exceeds on-hand %s (shortfall %.2f)", idx+1, entry.Quantity.String(), match.Existing.OnHand.String(), shortfall),
					Suggestion: "Reduce the requested quantity or run a stock-take first.",
				})
			}
		}

		analysis.Matches = append(analysis.Matches, match)
	}

	return analysis
}

// ApplyMerge folds a candidate's quantity into an EXACT match's existing
// item (auto-merge path, §4.5), appending the new project to the existing
// project list if one is tracked via the item's Location field, and
// returns the same item with its on-hand updated. Callers persist the
// returned item.
func ApplyMerge(existing *inventory.Item, quantityDelta decimal.Decimal, newProject string) *inventory.Item {
	existing.OnHand = existing.OnHand.Add(quantityDelta)
	if newProject != "" {
		existing.Location = inventory.AppendProject(existing.Location, newProject)
	}
	return existing
}
