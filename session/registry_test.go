package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialctl/frame"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(DefaultSensorNames...)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 0, r.Index())
	assert.Equal(t, "Temperature", r.Current().Name())
	assert.Empty(t, r.Current().Batch())

	names := make([]string, 0, r.Len())
	for _, s := range r.Sensors() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"Temperature", "Humidity", "Infrared"}, names)
}

func TestNewRegistry_Invalid(t *testing.T) {
	_, err := NewRegistry()
	assert.Error(t, err)
	_, err = NewRegistry("a", "")
	assert.Error(t, err)
	_, err = NewRegistry("a", "a")
	assert.Error(t, err)
}

func TestAdvanceCursor_Wraps(t *testing.T) {
	r, err := NewRegistry(DefaultSensorNames...)
	require.NoError(t, err)

	assert.Equal(t, 1, r.AdvanceCursor())
	assert.Equal(t, "Humidity", r.Current().Name())
	assert.Equal(t, 2, r.AdvanceCursor())
	assert.Equal(t, 0, r.AdvanceCursor())
	assert.Equal(t, "Temperature", r.Current().Name())
}

func TestAdvanceCursor_NStepsReturnToStart(t *testing.T) {
	for n := 1; n <= 5; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('A' + i))
		}
		r, err := NewRegistry(names...)
		require.NoError(t, err)
		r.AdvanceCursor()
		start := r.Index()
		for i := 0; i < n; i++ {
			r.AdvanceCursor()
		}
		assert.Equal(t, start, r.Index(), "n=%d", n)
	}
}

func TestStoreBatch_ReplacesCurrentOnly(t *testing.T) {
	r, err := NewRegistry(DefaultSensorNames...)
	require.NoError(t, err)

	first := frame.Batch{frame.NewDataPoint(1, 2)}
	s := r.StoreBatch(first)
	assert.Equal(t, "Temperature", s.Name())

	second := frame.Batch{frame.NewDataPoint(3)}
	r.StoreBatch(second)
	assert.Equal(t, second, r.Current().Batch())

	r.AdvanceCursor()
	assert.Empty(t, r.Current().Batch())
}

func TestStoreBatch_CopiesInput(t *testing.T) {
	r, err := NewRegistry("only")
	require.NoError(t, err)

	b := frame.Batch{frame.NewDataPoint(1)}
	r.StoreBatch(b)
	b[0] = frame.NewDataPoint(9)
	assert.Equal(t, frame.Batch{frame.NewDataPoint(1)}, r.Current().Batch())
}

func TestState_Logger(t *testing.T) {
	st, err := NewState(DefaultSensorNames...)
	require.NoError(t, err)
	assert.False(t, st.LoggerStarted())
	st.SetLoggerStarted(true)
	assert.True(t, st.LoggerStarted())
	assert.Equal(t, 3, st.Registry.Len())
}
