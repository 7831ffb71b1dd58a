package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataPoint_Immutable(t *testing.T) {
	fields := []int64{1, 2}
	p := NewDataPoint(fields...)
	fields[0] = 100
	assert.Equal(t, int64(1), p.Field(0))

	out := p.Fields()
	out[1] = 200
	assert.Equal(t, int64(2), p.Field(1))
	assert.Equal(t, 2, p.Len())
}

func TestBatch_String(t *testing.T) {
	b := Batch{NewDataPoint(23, 45), NewDataPoint(5)}
	assert.Equal(t, "[(23, 45), (5,)]", b.String())
	assert.Equal(t, "[]", Batch{}.String())
}

func TestBatch_Clone(t *testing.T) {
	b := Batch{NewDataPoint(1, 2)}
	c := b.Clone()
	assert.True(t, b.Equal(c))
	c[0] = NewDataPoint(3)
	assert.False(t, b.Equal(c))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "23|45@67|89@", string(Encode(Batch{NewDataPoint(23, 45), NewDataPoint(67, 89)})))
	assert.Equal(t, "5@", string(Encode(Batch{NewDataPoint(5)})))
	assert.Empty(t, Encode(Batch{NewDataPoint()}))
	assert.Empty(t, Encode(nil))
}
