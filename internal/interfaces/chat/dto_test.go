package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
)

func TestParseCommand(t *testing.T) {
	cmd, ok := ParseCommand("in project: Bridge\ncement 50kg, 10 bags")
	assert.True(t, ok)
	assert.Equal(t, authz.VerbIn, cmd.Verb)
	assert.Equal(t, "project: Bridge\ncement 50kg, 10 bags", cmd.Payload)
}

func TestParseCommand_Unrecognized(t *testing.T) {
	_, ok := ParseCommand("frobnicate everything")
	assert.False(t, ok)
}

func TestParseCommand_Empty(t *testing.T) {
	_, ok := ParseCommand("   ")
	assert.False(t, ok)
}

func TestIsValidateSubcommand(t *testing.T) {
	body, validateOnly := IsValidateSubcommand("validate\nlogged by: Ana\ncement, 5")
	assert.True(t, validateOnly)
	assert.Equal(t, "logged by: Ana\ncement, 5", body)

	body, validateOnly = IsValidateSubcommand("logged by: Ana\ncement, 5")
	assert.False(t, validateOnly)
	assert.Equal(t, "logged by: Ana\ncement, 5", body)
}

func TestPreviewDirection(t *testing.T) {
	direction, body, ok := PreviewDirection("out project: Bridge\ncement, 5")
	assert.True(t, ok)
	assert.Equal(t, "out", direction)
	assert.Equal(t, "project: Bridge\ncement, 5", body)

	_, _, ok = PreviewDirection("sideways cement, 5")
	assert.False(t, ok)
}

func TestParseCallbackToken(t *testing.T) {
	cases := []struct {
		token string
		kind  CallbackKind
	}{
		{"approvebatch:batch-1", CallbackApproveBatch},
		{"rejectbatch:batch-2", CallbackRejectBatch},
		{"confirm_individual_3", CallbackConfirmIndividual},
		{"cancel_individual_4", CallbackCancelIndividual},
		{"confirm_all_duplicates", CallbackConfirmAllDuplicates},
		{"cancel_all_duplicates", CallbackCancelAllDuplicates},
		{"show_all_duplicates", CallbackShowAllDuplicates},
		{"stock_item_2_cement-50kg", CallbackStockItem},
		{"stock_page_next_abc123_2", CallbackStockPageNext},
		{"stock_page_prev_abc123_0", CallbackStockPagePrev},
		{"garbage", CallbackUnknown},
	}
	for _, tc := range cases {
		parsed := ParseCallbackToken(tc.token)
		assert.Equal(t, tc.kind, parsed.Kind, tc.token)
	}

	approve := ParseCallbackToken("approvebatch:batch-xyz")
	assert.Equal(t, "batch-xyz", approve.BatchID)

	stockItem := ParseCallbackToken("stock_item_2_cement-50kg")
	assert.Equal(t, 2, stockItem.Index)
	assert.Equal(t, "cement-50kg", stockItem.Slug)

	page := ParseCallbackToken("stock_page_next_abc123_2")
	assert.Equal(t, "abc123", page.QueryHash)
	assert.Equal(t, 2, page.Page)
}

func TestTokenBuilders_RoundTrip(t *testing.T) {
	assert.Equal(t, "approvebatch:b1", ApproveBatchToken("b1"))
	assert.Equal(t, "rejectbatch:b1", RejectBatchToken("b1"))
	assert.Equal(t, "confirm_individual_5", ConfirmIndividualToken(5))
	assert.Equal(t, "cancel_individual_5", CancelIndividualToken(5))
	assert.Equal(t, "stock_item_1_cement", StockItemToken(1, "cement"))
	assert.Equal(t, "stock_page_next_hash_3", StockPageToken("next", "hash", 3))
	assert.Equal(t, "stock_page_prev_hash_1", StockPageToken("prev", "hash", 1))
}
