package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// MovementType is the tagged variant replacing the source's polymorphic
// movement dispatch (§9 design notes).
type MovementType string

const (
	MovementIN      MovementType = "IN"
	MovementOUT     MovementType = "OUT"
	MovementADJUST  MovementType = "ADJUST"
)

// MovementStatus tracks a movement through the approval state machine.
type MovementStatus string

const (
	StatusRequested MovementStatus = "REQUESTED"
	StatusPosted    MovementStatus = "POSTED"
	StatusVoided    MovementStatus = "VOIDED"
	StatusRejected  MovementStatus = "REJECTED"
)

// StockMovement is a single recorded change against an item's on-hand
// quantity, per §3.
type StockMovement struct {
	shared.BaseEntity

	BatchID  string
	ItemName string

	MovementType MovementType
	Quantity     decimal.Decimal
	Unit         string

	// SignedBaseQuantity is the movement's actual effect on on_hand:
	// +q for IN, -q for OUT, ±q for ADJUST.
	SignedBaseQuantity decimal.Decimal

	Status MovementStatus

	Timestamp time.Time
	UserID    uuid.UUID
	UserName  string

	Driver       string
	FromLocation string
	ToLocation   string
	Project      string
	Note         string
	Reason       string
	Category     Category
}

// NewStockMovement constructs a REQUESTED movement with the signed base
// quantity derived from type and entered quantity per §3's invariant.
func NewStockMovement(itemName string, movementType MovementType, quantity decimal.Decimal, unit string) *StockMovement {
	return &StockMovement{
		BaseEntity:         shared.NewBaseEntity(),
		ItemName:           itemName,
		MovementType:       movementType,
		Quantity:           quantity,
		Unit:               unit,
		SignedBaseQuantity: SignedQuantity(movementType, quantity),
		Status:             StatusRequested,
		Timestamp:          time.Now(),
	}
}

// SignedQuantity computes the on_hand delta for a movement type and entered
// quantity. ADJUST quantities already carry their own sign; IN/OUT quantities
// are entered unsigned and get the type's sign applied.
func SignedQuantity(movementType MovementType, quantity decimal.Decimal) decimal.Decimal {
	switch movementType {
	case MovementIN:
		return quantity.Abs()
	case MovementOUT:
		return quantity.Abs().Neg()
	case MovementADJUST:
		return quantity
	default:
		return decimal.Zero
	}
}

// Validate checks the sign invariant named in §3: signed_base_quantity's
// sign must match movement_type.
func (m *StockMovement) Validate() error {
	switch m.MovementType {
	case MovementIN:
		if m.SignedBaseQuantity.IsNegative() {
			return shared.NewDomainError("INVALID_SIGN", "IN movement must have non-negative signed quantity")
		}
	case MovementOUT:
		if m.SignedBaseQuantity.IsPositive() {
			return shared.NewDomainError("INVALID_SIGN", "OUT movement must have non-positive signed quantity")
		}
	case MovementADJUST:
		// ADJUST may be signed either way.
	default:
		return shared.NewDomainError("INVALID_TYPE", "unknown movement type")
	}
	return nil
}

// Post transitions a REQUESTED movement to POSTED. Only valid from REQUESTED.
func (m *StockMovement) Post() error {
	if m.Status != StatusRequested {
		return shared.ErrInvalidState
	}
	m.Status = StatusPosted
	return nil
}

// Reject transitions a REQUESTED movement to REJECTED.
func (m *StockMovement) Reject() error {
	if m.Status != StatusRequested {
		return shared.ErrInvalidState
	}
	m.Status = StatusRejected
	return nil
}

// Void transitions a POSTED movement to VOIDED (the single-movement legacy
// path named in §4.8).
func (m *StockMovement) Void() error {
	if m.Status != StatusPosted {
		return shared.ErrInvalidState
	}
	m.Status = StatusVoided
	return nil
}

// CompensatingDelta returns the on_hand adjustment needed to undo this
// movement, used by the batch processor's rollback pass (§4.7).
func (m *StockMovement) CompensatingDelta() decimal.Decimal {
	return m.SignedBaseQuantity.Neg()
}
