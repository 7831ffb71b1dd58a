package serialcomm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParity(t *testing.T) {
	for in, want := range map[string]Parity{"odd": OddParity, "O": OddParity, "even": EvenParity, " none ": NoParity} {
		got, err := ParseParity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseParity("mark")
	assert.Error(t, err)
	assert.Equal(t, "odd", OddParity.String())
}

func TestParseStopBits(t *testing.T) {
	s, err := ParseStopBits(2)
	require.NoError(t, err)
	assert.Equal(t, TwoStopBits, s)
	_, err = ParseStopBits(3)
	assert.Error(t, err)
}

func TestSerialConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultSerialConfig("/dev/ttyUSB0").Validate())

	bad := []func(c *SerialConfig){
		func(c *SerialConfig) { c.PortName = "" },
		func(c *SerialConfig) { c.BaudRate = 0 },
		func(c *SerialConfig) { c.DataBits = 9 },
		func(c *SerialConfig) { c.ReadTimeout = 0 },
	}
	for i, mutate := range bad {
		c := DefaultSerialConfig("/dev/ttyUSB0")
		mutate(c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
	assert.Equal(t, 100*time.Millisecond, DefaultSerialConfig("x").ReadTimeout)
}
