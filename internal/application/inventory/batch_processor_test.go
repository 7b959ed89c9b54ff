package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
)

func TestBatchProcessor_AllEntriesSucceed(t *testing.T) {
	existing := inventory.NewItem("Paint")
	existing.OnHand = decimal.NewFromInt(5)
	items := newFakeItemRepo(existing)
	exec := NewMovementExecutor(items, &fakeMovementRepo{}, nil)
	processor := NewBatchProcessor(items, exec, nil)

	entries := []ParsedEntry{
		{ItemName: "Paint", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "piece", Project: "Bridge"},
		{ItemName: "Cement", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(20), Unit: "bags", Project: "Bridge"},
	}
	before := processor.SnapshotBeforeLevels(context.Background(), entries)
	result := processor.Apply(context.Background(), "batch-1", entries, authz.RoleStaff, before)

	require.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.RolledBack)
	assert.Equal(t, float64(100), result.SuccessRate)
	assert.True(t, existing.OnHand.Equal(decimal.NewFromInt(15)))
}

func TestBatchProcessor_PartialFailureDoesNotRollBackOnNonCriticalError(t *testing.T) {
	items := newFakeItemRepo()
	exec := NewMovementExecutor(items, &fakeMovementRepo{}, nil)
	processor := NewBatchProcessor(items, exec, nil)

	entries := []ParsedEntry{
		{ItemName: "Ghost Item", MovementType: inventory.MovementOUT, Quantity: decimal.NewFromInt(1), Unit: "piece", Project: "Bridge"},
	}
	before := processor.SnapshotBeforeLevels(context.Background(), entries)
	result := processor.Apply(context.Background(), "batch-2", entries, authz.RoleStaff, before)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Successful)
	assert.False(t, result.RolledBack)
}

func TestBatchProcessor_CriticalFailureTriggersRollbackOfPriorSuccesses(t *testing.T) {
	existing := inventory.NewItem("Paint")
	existing.OnHand = decimal.NewFromInt(5)
	items := newFakeItemRepo(existing)
	failingMoves := &failOnSaveMovementRepo{failAfter: 1}
	exec := NewMovementExecutor(items, failingMoves, nil)
	processor := NewBatchProcessor(items, exec, nil)

	entries := []ParsedEntry{
		{ItemName: "Paint", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "piece", Project: "Bridge"},
		{ItemName: "Paint", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(3), Unit: "piece", Project: "Bridge"},
	}
	before := processor.SnapshotBeforeLevels(context.Background(), entries)
	result := processor.Apply(context.Background(), "batch-3", entries, authz.RoleStaff, before)

	assert.True(t, result.RolledBack)
	assert.True(t, existing.OnHand.Equal(decimal.NewFromInt(5)), "on-hand should be restored to its pre-batch level after rollback")
}

// failOnSaveMovementRepo fails to persist movements after the Nth call,
// simulating a database outage mid-batch (§4.7 critical-failure path).
type failOnSaveMovementRepo struct {
	calls     int
	failAfter int
	saved     []*inventory.StockMovement
}

func (r *failOnSaveMovementRepo) Save(_ context.Context, m *inventory.StockMovement) error {
	r.calls++
	if r.calls > r.failAfter {
		return assertAsError("simulated database timeout")
	}
	r.saved = append(r.saved, m)
	return nil
}

func (r *failOnSaveMovementRepo) FindByBatchID(_ context.Context, batchID string) ([]*inventory.StockMovement, error) {
	return r.saved, nil
}

func (r *failOnSaveMovementRepo) FindByItemName(_ context.Context, itemName string, limit int) ([]*inventory.StockMovement, error) {
	return nil, nil
}

type assertAsError string

func (e assertAsError) Error() string { return string(e) }
