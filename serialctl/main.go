// serialctl is an operator console for the multi-sensor serial data logger.
//
// Usage example: serialctl --device /dev/ttyACM0 --poll-interval 3s
//
// Every flag can also be set as SERIALCTL_<FLAG> in the environment or in a .env file.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"serialctl/config"
	"serialctl/datalog"
	"serialctl/frame"
	"serialctl/poller"
	"serialctl/protocol"
	"serialctl/serialcomm"
	"serialctl/session"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	app := &cli.App{
		Name:   "serialctl",
		Usage:  "fetch and log data from a multi-sensor serial logger",
		Flags:  config.Flags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogOutput)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := session.NewState(cfg.Sensors...)
	if err != nil {
		return err
	}

	port, err := serialcomm.Open(&cfg.Serial, logger.Named("serial"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v. Is the device connected?", err), 1)
	}
	closers := []io.Closer{port}

	var dlog *datalog.Writer
	if cfg.DataLogEnabled {
		if dlog, err = datalog.Open(cfg.DataLog); err != nil {
			return multierr.Append(err, port.Close())
		}
		closers = append(closers, dlog)
	}

	client := protocol.NewClient(port, cfg.Commands, cfg.ForegroundRead(), logger.Named("protocol"))
	out := os.Stdout
	monitor := poller.New(
		client.WithReadOptions(cfg.MonitorRead()),
		cfg.PollInterval,
		logger.Named("poller"),
		poller.WithBatchHook(func(b frame.Batch) {
			fmt.Fprintf(out, "[monitor] %s\n", b)
			if dlog != nil {
				if err := dlog.Append("monitor", b); err != nil {
					logger.Warnf("data log: %v", err)
				}
			}
		}),
	)

	hook := newShutdown(logger, monitor, closers...)
	defer func() { err = multierr.Append(err, hook.Run()) }()

	if cfg.MonitorOnStart {
		monitor.Start()
	}

	m := newMenu(os.Stdin, out, client, st, monitor, dlog, logger.Named("menu"))
	m.clear = isatty.IsTerminal(out.Fd())
	return m.Loop(ctx)
}
