package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"serialctl/serialcomm"
)

const envPrefix = "SERIALCTL_"

// Flag names.
const (
	FlagDevice          = "device"
	FlagBaud            = "baud"
	FlagDataBits        = "data-bits"
	FlagParity          = "parity"
	FlagStopBits        = "stop-bits"
	FlagReadTimeout     = "read-timeout"
	FlagFetchCode       = "fetch-code"
	FlagStartCode       = "start-code"
	FlagStopCode        = "stop-code"
	FlagToggleMapping   = "toggle-mapping"
	FlagSensors         = "sensors"
	FlagPollInterval    = "poll-interval"
	FlagResponseTimeout = "response-timeout"
	FlagFrameTimeout    = "frame-timeout"
	FlagDataLog         = "data-log"
	FlagNoDataLog       = "no-data-log"
	FlagDataLogMaxSize  = "data-log-max-size"
	FlagLogLevel        = "log-level"
	FlagLogOutput       = "log-output"
	FlagMonitor         = "monitor"
)

func env(name string) []string {
	return []string{envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))}
}

// Flags returns the command line flags, each also settable from SERIALCTL_<NAME>.
func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{Name: FlagDevice, Value: d.Serial.PortName, Usage: "serial device path", EnvVars: env(FlagDevice)},
		&cli.IntFlag{Name: FlagBaud, Value: d.Serial.BaudRate, Usage: "baud rate", EnvVars: env(FlagBaud)},
		&cli.IntFlag{Name: FlagDataBits, Value: d.Serial.DataBits, Usage: "data bits per character", EnvVars: env(FlagDataBits)},
		&cli.StringFlag{Name: FlagParity, Value: d.Serial.Parity.String(), Usage: "parity: none, odd or even", EnvVars: env(FlagParity)},
		&cli.IntFlag{Name: FlagStopBits, Value: int(d.Serial.StopBits), Usage: "stop bits: 1 or 2", EnvVars: env(FlagStopBits)},
		&cli.DurationFlag{Name: FlagReadTimeout, Value: d.Serial.ReadTimeout, Usage: "driver read timeout", EnvVars: env(FlagReadTimeout)},
		&cli.StringFlag{Name: FlagFetchCode, Value: string(d.Commands.Fetch), Usage: "fetch command character", EnvVars: env(FlagFetchCode)},
		&cli.StringFlag{Name: FlagStartCode, Value: string(d.Commands.Start), Usage: "start logger command character", EnvVars: env(FlagStartCode)},
		&cli.StringFlag{Name: FlagStopCode, Value: string(d.Commands.Stop), Usage: "stop logger command character", EnvVars: env(FlagStopCode)},
		&cli.StringFlag{
			Name:    FlagToggleMapping,
			Value:   ToggleDevice,
			Usage:   "logger toggle mapping: device (start while started, stop while stopped) or intuitive",
			EnvVars: env(FlagToggleMapping),
		},
		&cli.StringSliceFlag{
			Name:    FlagSensors,
			Value:   cli.NewStringSlice(d.Sensors...),
			Usage:   "sensor names in cursor order",
			EnvVars: env(FlagSensors),
		},
		&cli.DurationFlag{Name: FlagPollInterval, Value: d.PollInterval, Usage: "monitor mode poll interval", EnvVars: env(FlagPollInterval)},
		&cli.DurationFlag{Name: FlagResponseTimeout, Value: d.ResponseTimeout, Usage: "wait for the first byte of a reply", EnvVars: env(FlagResponseTimeout)},
		&cli.DurationFlag{Name: FlagFrameTimeout, Value: d.FrameTimeout, Usage: "monitor mode bound on a started reply", EnvVars: env(FlagFrameTimeout)},
		&cli.StringFlag{Name: FlagDataLog, Value: d.DataLog.Path, Usage: "data log file", EnvVars: env(FlagDataLog)},
		&cli.BoolFlag{Name: FlagNoDataLog, Usage: "do not persist fetched batches", EnvVars: env(FlagNoDataLog)},
		&cli.IntFlag{Name: FlagDataLogMaxSize, Value: d.DataLog.MaxSizeMB, Usage: "data log size in MB before rotation", EnvVars: env(FlagDataLogMaxSize)},
		&cli.StringFlag{Name: FlagLogLevel, Value: d.LogLevel, Usage: "debug, info, warn or error", EnvVars: env(FlagLogLevel)},
		&cli.StringFlag{Name: FlagLogOutput, Value: d.LogOutput, Usage: "diagnostic log destination: stderr, stdout or a file path", EnvVars: env(FlagLogOutput)},
		&cli.BoolFlag{Name: FlagMonitor, Usage: "start with monitor mode on", EnvVars: env(FlagMonitor)},
	}
}

// FromContext builds and validates a Config from parsed flags.
func FromContext(c *cli.Context) (*Config, error) {
	cfg := Default()

	cfg.Serial.PortName = c.String(FlagDevice)
	cfg.Serial.BaudRate = c.Int(FlagBaud)
	cfg.Serial.DataBits = c.Int(FlagDataBits)
	cfg.Serial.ReadTimeout = c.Duration(FlagReadTimeout)
	parity, err := serialcomm.ParseParity(c.String(FlagParity))
	if err != nil {
		return nil, err
	}
	cfg.Serial.Parity = parity
	stopBits, err := serialcomm.ParseStopBits(c.Int(FlagStopBits))
	if err != nil {
		return nil, err
	}
	cfg.Serial.StopBits = stopBits

	for flag, dst := range map[string]*byte{
		FlagFetchCode: &cfg.Commands.Fetch,
		FlagStartCode: &cfg.Commands.Start,
		FlagStopCode:  &cfg.Commands.Stop,
	} {
		code, err := ParseCode(c.String(flag))
		if err != nil {
			return nil, errors.Wrap(err, flag)
		}
		*dst = code
	}
	if err := ApplyToggleMapping(&cfg.Commands, c.String(FlagToggleMapping)); err != nil {
		return nil, err
	}

	cfg.Sensors = splitSensors(c.StringSlice(FlagSensors))
	cfg.PollInterval = c.Duration(FlagPollInterval)
	cfg.ResponseTimeout = c.Duration(FlagResponseTimeout)
	cfg.FrameTimeout = c.Duration(FlagFrameTimeout)
	cfg.DataLog.Path = c.String(FlagDataLog)
	cfg.DataLog.MaxSizeMB = c.Int(FlagDataLogMaxSize)
	cfg.DataLogEnabled = !c.Bool(FlagNoDataLog)
	cfg.LogLevel = c.String(FlagLogLevel)
	cfg.LogOutput = c.String(FlagLogOutput)
	cfg.MonitorOnStart = c.Bool(FlagMonitor)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitSensors accepts both repeated flags and comma separated values.
func splitSensors(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
