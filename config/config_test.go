package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"serialctl/protocol"
	"serialctl/serialcomm"
)

func parseArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "serialctl",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = FromContext(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"serialctl"}, args...)))
	return cfg, cfgErr
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.PortName)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 7, cfg.Serial.DataBits)
	assert.Equal(t, serialcomm.OddParity, cfg.Serial.Parity)
	assert.Equal(t, serialcomm.TwoStopBits, cfg.Serial.StopBits)
	assert.Equal(t, []string{"Temperature", "Humidity", "Infrared"}, cfg.Sensors)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, "data.log", cfg.DataLog.Path)
	assert.Equal(t, protocol.DefaultCommandTable(), cfg.Commands)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Serial.PortName = ""
	cfg.PollInterval = 0
	cfg.Sensors = nil
	cfg.DataLog.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)

	cfg.DataLogEnabled = false
	assert.Len(t, multierr.Errors(cfg.Validate()), 3)
}

func TestReadOptions(t *testing.T) {
	cfg := Default()
	assert.Equal(t, serialcomm.ReadOptions{FirstByteTimeout: 2 * time.Second}, cfg.ForegroundRead())
	assert.Equal(t, serialcomm.ReadOptions{FirstByteTimeout: 2 * time.Second, FrameTimeout: 5 * time.Second}, cfg.MonitorRead())
}

func TestFromContext_Defaults(t *testing.T) {
	cfg, err := parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromContext_Flags(t *testing.T) {
	cfg, err := parseArgs(t,
		"--device", "/dev/ttyUSB1",
		"--baud", "19200",
		"--parity", "even",
		"--stop-bits", "1",
		"--sensors", "A,B",
		"--sensors", "C",
		"--poll-interval", "500ms",
		"--toggle-mapping", "intuitive",
		"--no-data-log",
		"--monitor",
	)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.PortName)
	assert.Equal(t, 19200, cfg.Serial.BaudRate)
	assert.Equal(t, serialcomm.EvenParity, cfg.Serial.Parity)
	assert.Equal(t, serialcomm.OneStopBit, cfg.Serial.StopBits)
	assert.Equal(t, []string{"A", "B", "C"}, cfg.Sensors)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, byte('T'), cfg.Commands.ToggleCode(true))
	assert.Equal(t, byte('S'), cfg.Commands.ToggleCode(false))
	assert.False(t, cfg.DataLogEnabled)
	assert.True(t, cfg.MonitorOnStart)
}

func TestFromContext_Env(t *testing.T) {
	t.Setenv("SERIALCTL_DEVICE", "/dev/ttyS3")
	t.Setenv("SERIALCTL_FETCH_CODE", "G")
	t.Setenv("SERIALCTL_LOG_LEVEL", "debug")

	cfg, err := parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS3", cfg.Serial.PortName)
	assert.Equal(t, byte('G'), cfg.Commands.Fetch)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromContext_Invalid(t *testing.T) {
	_, err := parseArgs(t, "--parity", "mark")
	assert.Error(t, err)

	_, err = parseArgs(t, "--fetch-code", "FF")
	assert.Error(t, err)

	_, err = parseArgs(t, "--fetch-code", "S")
	assert.ErrorContains(t, err, "distinct")

	_, err = parseArgs(t, "--toggle-mapping", "backwards")
	assert.Error(t, err)

	_, err = parseArgs(t, "--stop-bits", "3")
	assert.Error(t, err)
}

func TestParseCode(t *testing.T) {
	c, err := ParseCode("F")
	require.NoError(t, err)
	assert.Equal(t, byte('F'), c)

	for _, bad := range []string{"", " ", "AB", "\n"} {
		_, err := ParseCode(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serialctl.env")
	require.NoError(t, os.WriteFile(path, []byte("SERIALCTL_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("SERIALCTL_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SERIALCTL_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("SERIALCTL_TEST_DOTENV"))
}
