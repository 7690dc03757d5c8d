package stats

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatePrecision(t *testing.T) {
	assert.False(t, UnknownEstimate().IsKnown())
	assert.True(t, ExactEstimate(0).IsKnown())
	assert.True(t, Estimate{Value: 10, Precision: Inexact}.IsKnown())
}

func TestNewUnknownShape(t *testing.T) {
	s := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "b", Type: arrow.BinaryTypes.String},
		{Name: "c", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	got := NewUnknown(s)
	assert.False(t, got.NumRows.IsKnown())
	assert.False(t, got.TotalByteSize.IsKnown())

	require.Len(t, got.Columns, 3)
	for _, col := range got.Columns {
		assert.False(t, col.NullCount.IsKnown())
		assert.False(t, col.DistinctCount.IsKnown())
		assert.Nil(t, col.MinValue)
		assert.Nil(t, col.MaxValue)
	}
}
