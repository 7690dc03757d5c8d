// Package stats models table and per-column statistics for scan planning.
// Estimates carry an explicit precision so planners can distinguish a known
// zero from an unavailable value.
package stats

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Precision qualifies how much an estimate can be trusted.
type Precision string

const (
	// Exact means the value was measured, not estimated
	Exact Precision = "exact"
	// Inexact means the value is a best-effort estimate
	Inexact Precision = "inexact"
	// Absent means no value is available
	Absent Precision = "absent"
)

// Estimate is a count or size with its precision.
type Estimate struct {
	Value     int64
	Precision Precision
}

// UnknownEstimate returns an absent estimate.
func UnknownEstimate() Estimate {
	return Estimate{Precision: Absent}
}

// ExactEstimate returns an exact estimate of v.
func ExactEstimate(v int64) Estimate {
	return Estimate{Value: v, Precision: Exact}
}

// IsKnown reports whether the estimate carries a usable value.
func (e Estimate) IsKnown() bool {
	return e.Precision == Exact || e.Precision == Inexact
}

// ColumnStatistics holds per-column statistics.
type ColumnStatistics struct {
	NullCount     Estimate
	DistinctCount Estimate
	// MinValue and MaxValue are typed per the column; nil when unknown
	MinValue interface{}
	MaxValue interface{}
}

// UnknownColumn returns all-absent column statistics.
func UnknownColumn() ColumnStatistics {
	return ColumnStatistics{
		NullCount:     UnknownEstimate(),
		DistinctCount: UnknownEstimate(),
	}
}

// Statistics holds table-level statistics sized to a schema.
type Statistics struct {
	NumRows       Estimate
	TotalByteSize Estimate
	Columns       []ColumnStatistics
}

// NewUnknown returns the unknown-statistics shape for a schema: absent row
// and byte counts and one all-absent column entry per schema field.
func NewUnknown(schema *arrow.Schema) Statistics {
	columns := make([]ColumnStatistics, len(schema.Fields()))
	for i := range columns {
		columns[i] = UnknownColumn()
	}
	return Statistics{
		NumRows:       UnknownEstimate(),
		TotalByteSize: UnknownEstimate(),
		Columns:       columns,
	}
}
