package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedQuantity(t *testing.T) {
	ten := decimal.NewFromInt(10)
	assert.True(t, SignedQuantity(MovementIN, ten).Equal(ten))
	assert.True(t, SignedQuantity(MovementOUT, ten).Equal(ten.Neg()))

	neg := decimal.NewFromInt(-3)
	assert.True(t, SignedQuantity(MovementADJUST, neg).Equal(neg))
}

func TestNewStockMovement_StartsRequested(t *testing.T) {
	m := NewStockMovement("cement", MovementIN, decimal.NewFromInt(10), "bag")
	assert.Equal(t, StatusRequested, m.Status)
	assert.True(t, m.SignedBaseQuantity.Equal(decimal.NewFromInt(10)))
}

func TestStockMovement_Validate(t *testing.T) {
	m := NewStockMovement("cement", MovementIN, decimal.NewFromInt(10), "bag")
	require.NoError(t, m.Validate())

	m.SignedBaseQuantity = decimal.NewFromInt(-1)
	assert.Error(t, m.Validate())
}

func TestStockMovement_PostTransition(t *testing.T) {
	m := NewStockMovement("cement", MovementIN, decimal.NewFromInt(10), "bag")
	require.NoError(t, m.Post())
	assert.Equal(t, StatusPosted, m.Status)

	assert.Error(t, m.Post(), "cannot post a movement that isn't requested")
}

func TestStockMovement_RejectTransition(t *testing.T) {
	m := NewStockMovement("cement", MovementOUT, decimal.NewFromInt(5), "piece")
	require.NoError(t, m.Reject())
	assert.Equal(t, StatusRejected, m.Status)
}

func TestStockMovement_CompensatingDelta(t *testing.T) {
	m := NewStockMovement("cement", MovementIN, decimal.NewFromInt(10), "bag")
	assert.True(t, m.CompensatingDelta().Equal(decimal.NewFromInt(-10)))

	out := NewStockMovement("cement", MovementOUT, decimal.NewFromInt(10), "bag")
	assert.True(t, out.CompensatingDelta().Equal(decimal.NewFromInt(10)))
}
