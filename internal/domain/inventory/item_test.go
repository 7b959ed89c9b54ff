package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem_Defaults(t *testing.T) {
	item := NewItem("Cement 50kg")
	assert.Equal(t, decimal.Zero.String(), item.OnHand.String())
	assert.Equal(t, "1", item.UnitSize.String())
	assert.Equal(t, "piece", item.UnitType)
	assert.Equal(t, CategoryGeneral, item.Category)
	assert.True(t, item.IsActive)
}

func TestItem_TotalVolume(t *testing.T) {
	item := NewItem("Cement 50kg")
	item.UnitSize = decimal.NewFromInt(50)
	item.OnHand = decimal.NewFromInt(10)
	assert.True(t, item.TotalVolume().Equal(decimal.NewFromInt(500)))
}

func TestItem_Validate(t *testing.T) {
	item := NewItem("widget")
	require.NoError(t, item.Validate())

	item.UnitSize = decimal.Zero
	assert.Error(t, item.Validate())

	item.UnitSize = decimal.NewFromInt(1)
	item.UnitType = "  "
	assert.Error(t, item.Validate())
}

func TestInferCategory(t *testing.T) {
	assert.Equal(t, CategoryPaint, InferCategory("Paint 20ltrs"))
	assert.Equal(t, CategoryElectrical, InferCategory("Cable 2.5sqmm"))
	assert.Equal(t, CategorySteel, InferCategory("Steel beam 6m"))
	assert.Equal(t, CategoryGeneral, InferCategory("Unknown widget"))
}

func TestAppendProject_AddsNewProject(t *testing.T) {
	assert.Equal(t, "Bridge", AppendProject("", "Bridge"))
	assert.Equal(t, "Bridge, Mall", AppendProject("Bridge", "Mall"))
}

func TestAppendProject_SkipsDuplicate(t *testing.T) {
	assert.Equal(t, "Bridge, Mall", AppendProject("Bridge, Mall", "bridge"))
}

func TestItem_NeedsReorder(t *testing.T) {
	item := NewItem("widget")
	item.OnHand = decimal.NewFromInt(5)
	threshold := decimal.NewFromInt(10)
	item.ReorderThreshold = &threshold
	assert.True(t, item.NeedsReorder())

	item.OnHand = decimal.NewFromInt(20)
	assert.False(t, item.NeedsReorder())
}
