package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
)

// StagedBatch is the full in-memory record of a pending batch: the domain
// approval record (movements, before_levels, status) plus the original
// parsed entries the batch processor needs to re-derive unit metadata and
// apply movements on approval.
type StagedBatch struct {
	Approval *inventory.BatchApproval
	Entries  []ParsedEntry
}

// ApprovalController implements C8: the pending-batch state machine
// (stage/get/approve/reject/void) and the per-chat pending-duplicates
// dictionary. Mutations serialize per batch_id / per chat_id (§5), so all
// access goes through a single mutex guarding both maps.
type ApprovalController struct {
	mu        sync.Mutex
	pending   map[string]*StagedBatch
	duplicates map[string]*inventory.PendingDuplicateEntry // keyed by chat_id

	processor *BatchProcessor
	logger    *zap.Logger
}

// NewApprovalController constructs a controller backed by the given batch
// processor.
func NewApprovalController(processor *BatchProcessor, logger *zap.Logger) *ApprovalController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalController{
		pending:    make(map[string]*StagedBatch),
		duplicates: make(map[string]*inventory.PendingDuplicateEntry),
		processor:  processor,
		logger:     logger,
	}
}

// Stage allocates a batch_id, records before_levels, and parks the batch
// pending a human decision (§4.8 "stage").
func (c *ApprovalController) Stage(ctx context.Context, entries []ParsedEntry, submitter Submitter) (*inventory.BatchApproval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batchID := NewBatchID()
	before := c.processor.SnapshotBeforeLevels(ctx, entries)

	movements := make([]*inventory.StockMovement, 0, len(entries))
	for _, entry := range entries {
		m := inventory.NewStockMovement(entry.ItemName, entry.MovementType, entry.Quantity, entry.Unit)
		m.BatchID = batchID
		m.Project = entry.Project
		m.Driver = entry.Driver
		m.FromLocation = entry.From
		m.ToLocation = entry.To
		m.Note = entry.Note
		m.UserID = submitter.UserID
		m.UserName = submitter.UserName
		movements = append(movements, m)
	}

	approval := inventory.NewBatchApproval(batchID, movements, submitter.UserID, submitter.UserName, submitter.ChatID, before)
	if len(entries) > 0 {
		approval.GlobalParameters = &inventory.GlobalParameters{
			Project: entries[0].Project,
			Driver:  entries[0].Driver,
			From:    entries[0].From,
			To:      entries[0].To,
		}
	}

	c.pending[batchID] = &StagedBatch{Approval: approval, Entries: entries}
	return approval, nil
}

// Get retrieves a pending batch's snapshot, per §4.8 "get".
func (c *ApprovalController) Get(batchID string) (*inventory.BatchApproval, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	staged, ok := c.pending[batchID]
	if !ok {
		return nil, false
	}
	return staged.Approval, true
}

// Approve requires the admin role, invokes the batch processor, fills
// after_levels, and removes the batch from pending on success. On a
// critical failure the batch is removed only if at least one movement
// posted; otherwise it is retained for retry (§4.8 failure semantics).
func (c *ApprovalController) Approve(ctx context.Context, batchID string, approverRole authz.Role) (*BatchResult, error) {
	if !authz.IsAdmin(approverRole) {
		return nil, fmt.Errorf("permission denied: approving a batch requires the admin role")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	staged, ok := c.pending[batchID]
	if !ok {
		return nil, fmt.Errorf("batch %q not found", batchID)
	}

	result := c.processor.Apply(ctx, batchID, staged.Entries, approverRole, staged.Approval.BeforeLevels)

	var failed []inventory.EntryError
	for i, outcome := range result.Outcomes {
		if !outcome.Success && outcome.Error != nil {
			entry := inventory.EntryError{
				EntryIndex: i,
				ItemName:   outcome.ItemName,
				Category:   outcome.Error.Category,
				Severity:   outcome.Error.Severity,
				Message:    outcome.Error.Message,
				Suggestion: outcome.Error.Suggestion,
			}
			failed = append(failed, entry)
		}
	}

	criticalWithNoSuccess := result.Successful == 0 && result.Failed > 0
	if criticalWithNoSuccess {
		// Nothing posted: retain the batch, still Pending, so the approver
		// can retry once the underlying failure (e.g. a store outage) clears.
		return result, nil
	}

	if approveErr := staged.Approval.Approve(result.AfterLevels, failed); approveErr != nil {
		return result, approveErr
	}

	delete(c.pending, batchID)

	return result, nil
}

// Reject requires the admin role, transitions the batch to REJECTED with no
// catalogue writes, and removes it from pending.
func (c *ApprovalController) Reject(_ context.Context, batchID string, approverRole authz.Role) error {
	if !authz.IsAdmin(approverRole) {
		return fmt.Errorf("permission denied: rejecting a batch requires the admin role")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	staged, ok := c.pending[batchID]
	if !ok {
		return fmt.Errorf("batch %q not found", batchID)
	}
	if err := staged.Approval.Reject(); err != nil {
		return err
	}
	delete(c.pending, batchID)
	return nil
}

// PendingCount reports how many batches are currently awaiting a decision,
// used by periodic housekeeping/metrics.
func (c *ApprovalController) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// SweepExpired evicts pending batches older than maxAge. The spec names no
// built-in expiry (§9 open question); this is the optional bounded sweep
// callers may run on a timer — it is never invoked automatically.
func (c *ApprovalController) SweepExpired(maxAge time.Duration) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var evicted []string
	for id, staged := range c.pending {
		if staged.Approval.CreatedAt.Before(cutoff) {
			evicted = append(evicted, id)
			delete(c.pending, id)
		}
	}
	return evicted
}

// StageDuplicates parks a duplicate-confirmation dialogue for a chat
// (§4.8's "per-chat pending-duplicates" dictionary).
func (c *ApprovalController) StageDuplicates(chatID string, matches []inventory.DuplicateMatch, movementType inventory.MovementType, userID uuid.UUID) *inventory.PendingDuplicateEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := inventory.NewPendingDuplicateEntry(matches, movementType, userID)
	c.duplicates[chatID] = entry
	return entry
}

// GetDuplicates retrieves the pending duplicate dialogue for a chat, if any.
func (c *ApprovalController) GetDuplicates(chatID string) (*inventory.PendingDuplicateEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.duplicates[chatID]
	return entry, ok
}

// ConfirmDuplicate marks a single duplicate candidate confirmed (merge) and
// removes the dialogue once every candidate is resolved.
func (c *ApprovalController) ConfirmDuplicate(chatID string, index int) error {
	return c.resolveDuplicate(chatID, index, true)
}

// CancelDuplicate marks a single duplicate candidate cancelled (skip) and
// removes the dialogue once every candidate is resolved.
func (c *ApprovalController) CancelDuplicate(chatID string, index int) error {
	return c.resolveDuplicate(chatID, index, false)
}

func (c *ApprovalController) resolveDuplicate(chatID string, index int, confirm bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.duplicates[chatID]
	if !ok {
		return fmt.Errorf("no pending duplicate dialogue for this chat")
	}
	if index < 0 || index >= len(entry.Duplicates) {
		return fmt.Errorf("duplicate index %d out of range", index)
	}
	if confirm {
		entry.ConfirmedItems[index] = true
	} else {
		entry.CancelledItems[index] = true
	}
	if entry.Resolved() {
		delete(c.duplicates, chatID)
	}
	return nil
}

// ConfirmAllDuplicates applies the confirm_all bulk action and clears the
// dialogue.
func (c *ApprovalController) ConfirmAllDuplicates(chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.duplicates[chatID]
	if !ok {
		return fmt.Errorf("no pending duplicate dialogue for this chat")
	}
	entry.ConfirmAll()
	delete(c.duplicates, chatID)
	return nil
}

// CancelAllDuplicates applies the cancel_all bulk action and clears the
// dialogue.
func (c *ApprovalController) CancelAllDuplicates(chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.duplicates[chatID]
	if !ok {
		return fmt.Errorf("no pending duplicate dialogue for this chat")
	}
	entry.CancelAll()
	delete(c.duplicates, chatID)
	return nil
}
