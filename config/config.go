// Package config holds the controller's static configuration: how to reach the
// device, what to send it and how long to wait for it.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"serialctl/datalog"
	"serialctl/protocol"
	"serialctl/serialcomm"
	"serialctl/session"
)

// Toggle mappings accepted by ParseToggleMapping.
const (
	// ToggleDevice sends START while the logger is believed started and STOP while
	// it is believed stopped. This is what the firmware has always received.
	ToggleDevice = "device"
	// ToggleIntuitive sends STOP while started and START while stopped.
	ToggleIntuitive = "intuitive"
)

// Config is the full controller configuration.
type Config struct {
	Serial   serialcomm.SerialConfig
	Commands protocol.CommandTable
	Sensors  []string

	// PollInterval is the monitor mode sleep between fetches.
	PollInterval time.Duration
	// ResponseTimeout is how long a fetch waits for the first byte of a reply.
	ResponseTimeout time.Duration
	// FrameTimeout bounds a started reply in monitor mode. Operator fetches wait
	// for the terminator without a bound.
	FrameTimeout time.Duration

	DataLog        datalog.Options
	DataLogEnabled bool

	LogLevel  string
	LogOutput string

	MonitorOnStart bool
}

// Default returns the configuration for the stock device on /dev/ttyACM0.
func Default() *Config {
	return &Config{
		Serial:          *serialcomm.DefaultSerialConfig("/dev/ttyACM0"),
		Commands:        protocol.DefaultCommandTable(),
		Sensors:         append([]string(nil), session.DefaultSensorNames...),
		PollInterval:    3 * time.Second,
		ResponseTimeout: 2 * time.Second,
		FrameTimeout:    5 * time.Second,
		DataLog: datalog.Options{
			Path:       "data.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		DataLogEnabled: true,
		LogLevel:       "info",
		LogOutput:      "stderr",
	}
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var err error
	err = multierr.Append(err, errors.Wrap(c.Serial.Validate(), "serial"))
	err = multierr.Append(err, errors.Wrap(c.Commands.Validate(), "commands"))
	if len(c.Sensors) == 0 {
		err = multierr.Append(err, errors.New("at least one sensor is required"))
	}
	for _, name := range c.Sensors {
		if strings.TrimSpace(name) == "" {
			err = multierr.Append(err, errors.New("sensor names cannot be empty"))
			break
		}
	}
	if c.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("poll interval must be greater than 0"))
	}
	if c.ResponseTimeout <= 0 {
		err = multierr.Append(err, errors.New("response timeout must be greater than 0"))
	}
	if c.FrameTimeout <= 0 {
		err = multierr.Append(err, errors.New("frame timeout must be greater than 0"))
	}
	if c.DataLogEnabled && c.DataLog.Path == "" {
		err = multierr.Append(err, errors.New("data log path cannot be empty"))
	}
	return err
}

// ForegroundRead is how operator-initiated fetches wait: bounded for the first
// byte, unbounded for the rest of the frame.
func (c *Config) ForegroundRead() serialcomm.ReadOptions {
	return serialcomm.ReadOptions{FirstByteTimeout: c.ResponseTimeout}
}

// MonitorRead is how monitor mode fetches wait. Both phases are bounded so the
// poller never holds the link indefinitely.
func (c *Config) MonitorRead() serialcomm.ReadOptions {
	return serialcomm.ReadOptions{FirstByteTimeout: c.ResponseTimeout, FrameTimeout: c.FrameTimeout}
}

// ParseCode parses a single printable ASCII command character.
func ParseCode(s string) (byte, error) {
	if len(s) != 1 || s[0] < 0x21 || s[0] > 0x7e {
		return 0, errors.Errorf("command code must be one printable ASCII character, got %q", s)
	}
	return s[0], nil
}

// ApplyToggleMapping sets which logger code a toggle sends for each believed state.
func ApplyToggleMapping(cmds *protocol.CommandTable, mapping string) error {
	switch strings.ToLower(mapping) {
	case ToggleDevice:
		cmds.WhenStarted, cmds.WhenStopped = cmds.Start, cmds.Stop
	case ToggleIntuitive:
		cmds.WhenStarted, cmds.WhenStopped = cmds.Stop, cmds.Start
	default:
		return errors.Errorf("unknown toggle mapping %q, expected %q or %q", mapping, ToggleDevice, ToggleIntuitive)
	}
	return nil
}

// LoadDotEnv loads environment variables from the given files, or ".env" when none
// are given. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "loading %s", p)
		}
	}
	return nil
}
