// Package inventory implements the application-layer pipeline: the command
// parser (C4), duplicate engine (C5), movement executor (C6), batch
// processor (C7), and approval controller (C8) described by the core
// specification. It depends only on internal/domain/inventory and
// internal/domain/shared — no transport or persistence types leak in here.
package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

// BatchFormat records which of the four recognized shapes (§4.4) a command
// was parsed as.
type BatchFormat string

const (
	FormatSingle     BatchFormat = "single"
	FormatFreeBatch  BatchFormat = "free_batch"
	FormatSegmented  BatchFormat = "segmented"
	FormatStocktake  BatchFormat = "stocktake"
)

// ParsedEntry is one typed movement line extracted from free-form text,
// with global parameters already resolved (inherited unless overridden).
type ParsedEntry struct {
	LineNumber   int
	BatchNumber  int
	ItemName     string
	MovementType inventory.MovementType
	Quantity     decimal.Decimal
	Unit         string

	Project string
	Driver  string
	From    string
	To      string
	Note    string
	Reason  string

	// SoftWarnings are non-fatal notices (quantity > 10,000, duplicate item
	// within batch) that don't block parsing but are surfaced to the user.
	SoftWarnings []string
}

// ParsedBatch is the command parser's (C4) output for `in`/`out`/`adjust`
// submissions.
type ParsedBatch struct {
	Format       BatchFormat
	MovementType inventory.MovementType
	Entries      []ParsedEntry
	IsValid      bool
	Errors       []inventory.EntryError
}

// StocktakeEntry is one counted-quantity line from an `inventory` command.
type StocktakeEntry struct {
	LineNumber int
	ItemName   string
	CountedQty decimal.Decimal
	Unit       string
}

// ParsedStocktake is the command parser's (C4) output for `inventory`
// submissions.
type ParsedStocktake struct {
	Date       string // normalized YYYY-MM-DD
	LoggedBy   []string
	Category   string
	Entries    []StocktakeEntry
	CommentLines int
	BlankLines   int
	IsValid    bool
	Errors     []inventory.EntryError
}

// DuplicateAnalysis is the duplicate engine's (C5) output for one batch.
type DuplicateAnalysis struct {
	Matches         []inventory.DuplicateMatch
	ShortfallErrors []inventory.EntryError
}

// EntryOutcome records the per-entry result of applying one movement in the
// batch processor (C7).
type EntryOutcome struct {
	ItemName     string
	MovementType inventory.MovementType
	Success      bool
	Error        *inventory.ProcessingError
}

// BatchResult is the batch processor's (C7) output: totals, per-entry
// errors, rollback flag, summary.
type BatchResult struct {
	BatchID      string
	Total        int
	Successful   int
	Failed       int
	SuccessRate  float64
	Outcomes     []EntryOutcome
	RolledBack   bool
	RollbackFailed bool
	BeforeLevels map[string]decimal.Decimal
	AfterLevels  map[string]decimal.Decimal
	Summary      string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Submitter identifies who issued a command, carried through the pipeline
// for authorization and attribution.
type Submitter struct {
	UserID   uuid.UUID
	UserName string
	ChatID   string
}
