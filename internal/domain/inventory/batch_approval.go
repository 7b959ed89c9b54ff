package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// ApprovalStatus is the staged-batch state named in §4.8's state machine.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// GlobalParameters are the batch-head fields inherited by every entry
// (§4.4): project, driver, from, to.
type GlobalParameters struct {
	Project string
	Driver  string
	From    string
	To      string
}

// EntryError is a single per-entry failure recorded against a batch, shaped
// by the error taxonomy (C9, §4.9).
type EntryError struct {
	EntryIndex   int
	ItemName     string
	Category     ErrorCategory
	Severity     ErrorSeverity
	Message      string
	Suggestion   string
}

// BatchApproval is a staged set of movements awaiting a human decision
// (§3). It lives only in process memory; restart drops pending batches
// (§9 open question — accepted loss, caller re-submits).
type BatchApproval struct {
	BatchID  string
	Movements []*StockMovement

	UserID   uuid.UUID
	UserName string
	ChatID   string

	Status ApprovalStatus

	CreatedAt time.Time

	// BeforeLevels and AfterLevels are keyed by normalized item name.
	BeforeLevels map[string]decimal.Decimal
	AfterLevels  map[string]decimal.Decimal

	FailedEntries []EntryError

	GlobalParameters *GlobalParameters
}

// NewBatchApproval stages a new pending batch. BeforeLevels must be supplied
// by the caller (the batch processor snapshots it from the catalogue before
// staging) so it spans every distinct item referenced by movements.
func NewBatchApproval(batchID string, movements []*StockMovement, userID uuid.UUID, userName, chatID string, beforeLevels map[string]decimal.Decimal) *BatchApproval {
	return &BatchApproval{
		BatchID:      batchID,
		Movements:    movements,
		UserID:       userID,
		UserName:     userName,
		ChatID:       chatID,
		Status:       ApprovalPending,
		CreatedAt:    time.Now(),
		BeforeLevels: beforeLevels,
	}
}

// Approve transitions a pending batch to Approved. Caller is responsible for
// verifying the approver holds the admin role before calling this (§4.8).
func (b *BatchApproval) Approve(afterLevels map[string]decimal.Decimal, failed []EntryError) error {
	if b.Status != ApprovalPending {
		return shared.ErrInvalidState
	}
	b.Status = ApprovalApproved
	b.AfterLevels = afterLevels
	b.FailedEntries = failed
	return nil
}

// Reject transitions a pending batch to Rejected with no catalogue writes.
func (b *BatchApproval) Reject() error {
	if b.Status != ApprovalPending {
		return shared.ErrInvalidState
	}
	b.Status = ApprovalRejected
	return nil
}

// DistinctItemNames returns the normalized item names referenced by the
// batch's movements, used to build BeforeLevels.
func (b *BatchApproval) DistinctItemNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range b.Movements {
		key := normalizedName(m.ItemName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, key)
	}
	return names
}

// PendingDuplicateEntry mirrors the "per-chat pending-duplicates" dictionary
// named in §4.8: a duplicate-confirmation dialogue awaiting user decisions
// on each candidate match.
type PendingDuplicateEntry struct {
	Duplicates      []DuplicateMatch
	MovementType    MovementType
	UserID          uuid.UUID
	CreatedAt       time.Time
	ConfirmedItems  map[int]bool
	CancelledItems  map[int]bool
}

// NewPendingDuplicateEntry stages a duplicate-confirmation dialogue.
func NewPendingDuplicateEntry(duplicates []DuplicateMatch, movementType MovementType, userID uuid.UUID) *PendingDuplicateEntry {
	return &PendingDuplicateEntry{
		Duplicates:     duplicates,
		MovementType:   movementType,
		UserID:         userID,
		CreatedAt:      time.Now(),
		ConfirmedItems: make(map[int]bool),
		CancelledItems: make(map[int]bool),
	}
}

// Resolved reports whether every duplicate has received a confirm or cancel
// decision, per §4.8 ("when |confirmed|+|cancelled| = |duplicates|").
func (p *PendingDuplicateEntry) Resolved() bool {
	return len(p.ConfirmedItems)+len(p.CancelledItems) >= len(p.Duplicates)
}

// ConfirmAll marks every unresolved duplicate as confirmed (the
// confirm_all bulk action).
func (p *PendingDuplicateEntry) ConfirmAll() {
	for i := range p.Duplicates {
		if !p.CancelledItems[i] {
			p.ConfirmedItems[i] = true
		}
	}
}

// CancelAll marks every unresolved duplicate as cancelled (the
// cancel_all bulk action).
func (p *PendingDuplicateEntry) CancelAll() {
	for i := range p.Duplicates {
		if !p.ConfirmedItems[i] {
			p.CancelledItems[i] = true
		}
	}
}
