// Package frame converts the device's delimited text frames into data points and back.
//
// A frame is a sequence of data points separated by PointSeparator, each data point a
// sequence of base-10 integer fields separated by ValueSeparator:
//
//	23|45@67|89@
//
// The trailing point separator is optional and runs of separators never produce empty
// data points.
package frame

import (
	"strconv"
	"strings"
)

const (
	// PointSeparator delimits data points within a frame.
	PointSeparator = '@'
	// ValueSeparator delimits fields within a data point.
	ValueSeparator = '|'
)

// DataPoint is one immutable tuple of integer fields.
type DataPoint struct {
	fields []int64
}

// NewDataPoint copies fields into a new DataPoint.
func NewDataPoint(fields ...int64) DataPoint {
	return DataPoint{fields: append([]int64(nil), fields...)}
}

// Len returns the arity of the point.
func (p DataPoint) Len() int {
	return len(p.fields)
}

// Field returns the i-th field.
func (p DataPoint) Field(i int) int64 {
	return p.fields[i]
}

// Fields returns a copy of the point's fields.
func (p DataPoint) Fields() []int64 {
	return append([]int64(nil), p.fields...)
}

// Equal reports whether both points hold the same fields in the same order.
func (p DataPoint) Equal(o DataPoint) bool {
	if len(p.fields) != len(o.fields) {
		return false
	}
	for i := range p.fields {
		if p.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String renders the point as a tuple, e.g. "(23, 45)". Single-field points keep the
// trailing comma, "(5,)".
func (p DataPoint) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, f := range p.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatInt(f, 10))
	}
	if len(p.fields) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}

// Batch is the ordered result of decoding one frame.
type Batch []DataPoint

// Equal reports whether both batches hold equal points in the same order.
func (b Batch) Equal(o Batch) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if !b[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the batch that shares no storage with b.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for i, p := range b {
		out[i] = NewDataPoint(p.fields...)
	}
	return out
}

func (b Batch) String() string {
	parts := make([]string, len(b))
	for i, p := range b {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
