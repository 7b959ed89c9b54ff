package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
)

func newTestController() (*ApprovalController, *fakeItemRepo) {
	items := newFakeItemRepo()
	exec := NewMovementExecutor(items, &fakeMovementRepo{}, nil)
	processor := NewBatchProcessor(items, exec, nil)
	return NewApprovalController(processor, nil), items
}

func TestApprovalController_StageParksBatchAsPending(t *testing.T) {
	controller, _ := newTestController()
	entries := []ParsedEntry{{ItemName: "Cement", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "bags", Project: "Bridge"}}

	approval, err := controller.Stage(context.Background(), entries, Submitter{UserID: uuid.New(), UserName: "alice", ChatID: "chat-1"})

	require.NoError(t, err)
	assert.Equal(t, inventory.ApprovalPending, approval.Status)
	assert.Equal(t, 1, controller.PendingCount())

	fetched, ok := controller.Get(approval.BatchID)
	require.True(t, ok)
	assert.Equal(t, approval.BatchID, fetched.BatchID)
}

func TestApprovalController_ApproveRequiresAdmin(t *testing.T) {
	controller, _ := newTestController()
	entries := []ParsedEntry{{ItemName: "Cement", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "bags", Project: "Bridge"}}
	approval, _ := controller.Stage(context.Background(), entries, Submitter{UserID: uuid.New(), UserName: "alice", ChatID: "chat-1"})

	_, err := controller.Approve(context.Background(), approval.BatchID, authz.RoleStaff)

	require.Error(t, err)
	assert.Equal(t, 1, controller.PendingCount(), "batch should remain pending after a denied approval")
}

func TestApprovalController_ApproveAppliesAndRemovesFromPending(t *testing.T) {
	controller, items := newTestController()
	entries := []ParsedEntry{{ItemName: "Cement", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "bags", Project: "Bridge"}}
	approval, _ := controller.Stage(context.Background(), entries, Submitter{UserID: uuid.New(), UserName: "alice", ChatID: "chat-1"})

	result, err := controller.Approve(context.Background(), approval.BatchID, authz.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, controller.PendingCount())

	item, findErr := items.FindByName(context.Background(), "Cement")
	require.NoError(t, findErr)
	assert.True(t, item.OnHand.Equal(decimal.NewFromInt(10)))

	_, stillPending := controller.Get(approval.BatchID)
	assert.False(t, stillPending)
}

func TestApprovalController_ApproveRetainsBatchWhenNothingPosted(t *testing.T) {
	controller, _ := newTestController()
	entries := []ParsedEntry{{ItemName: "Ghost", MovementType: inventory.MovementOUT, Quantity: decimal.NewFromInt(1), Unit: "piece", Project: "Bridge"}}
	approval, _ := controller.Stage(context.Background(), entries, Submitter{UserID: uuid.New(), UserName: "alice", ChatID: "chat-1"})

	result, err := controller.Approve(context.Background(), approval.BatchID, authz.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 1, controller.PendingCount(), "batch with zero successful movements should be retained for retry")
}

func TestApprovalController_RejectRequiresAdminAndMakesNoWrites(t *testing.T) {
	controller, items := newTestController()
	entries := []ParsedEntry{{ItemName: "Cement", MovementType: inventory.MovementIN, Quantity: decimal.NewFromInt(10), Unit: "bags", Project: "Bridge"}}
	approval, _ := controller.Stage(context.Background(), entries, Submitter{UserID: uuid.New(), UserName: "alice", ChatID: "chat-1"})

	err := controller.Reject(context.Background(), approval.BatchID, authz.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, 0, controller.PendingCount())
	_, findErr := items.FindByName(context.Background(), "Cement")
	assert.Error(t, findErr, "rejecting a batch must not create or mutate any item")
}

func TestApprovalController_GetMissingBatchReturnsFalse(t *testing.T) {
	controller, _ := newTestController()
	_, ok := controller.Get("nonexistent")
	assert.False(t, ok)
}

func TestApprovalController_DuplicateDialogueResolvesWhenAllDecided(t *testing.T) {
	controller, _ := newTestController()
	candidate := inventory.NewItem("Cement 50kg")
	match, _ := inventory.BestMatch("Cement 50kg", []*inventory.Item{candidate}, 1, 0)

	controller.StageDuplicates("chat-1", []inventory.DuplicateMatch{match}, inventory.MovementIN, uuid.New())
	_, ok := controller.GetDuplicates("chat-1")
	require.True(t, ok)

	require.NoError(t, controller.ConfirmDuplicate("chat-1", 0))

	_, stillPending := controller.GetDuplicates("chat-1")
	assert.False(t, stillPending)
}

func TestApprovalController_ConfirmAllAndCancelAllClearDialogue(t *testing.T) {
	controller, _ := newTestController()
	candidate := inventory.NewItem("Cement 50kg")
	m1, _ := inventory.BestMatch("Cement 50kg", []*inventory.Item{candidate}, 1, 0)
	m2, _ := inventory.BestMatch("Cement 50kg", []*inventory.Item{candidate}, 1, 1)

	controller.StageDuplicates("chat-2", []inventory.DuplicateMatch{m1, m2}, inventory.MovementIN, uuid.New())
	require.NoError(t, controller.ConfirmAllDuplicates("chat-2"))
	_, ok := controller.GetDuplicates("chat-2")
	assert.False(t, ok)
}
