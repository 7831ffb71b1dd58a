// devicesim plays the logging device on a serial port, for exercising serialctl
// without hardware. Pair it with serialctl over a null-modem cable or a pty pair:
//
//	socat -d -d pty,raw,echo=0 pty,raw,echo=0
//	devicesim --device /dev/pts/3
//	serialctl --device /dev/pts/4
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"serialctl/protocol"
	"serialctl/serialcomm"
)

func main() {
	app := &cli.App{
		Name:  "devicesim",
		Usage: "simulate the multi-sensor logging device on a serial port",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Usage: "serial device to serve on", Required: true},
			&cli.IntFlag{Name: "baud", Usage: "baud rate", Value: 9600},
			&cli.IntFlag{Name: "points", Usage: "data points per frame", Value: 3},
			&cli.IntFlag{Name: "fields", Usage: "values per data point", Value: 2},
			&cli.IntFlag{Name: "chunk-size", Usage: "bytes written per chunk", Value: 20},
			&cli.DurationFlag{Name: "chunk-gap", Usage: "pause between chunks", Value: 50 * time.Millisecond},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for readings", Value: time.Now().UnixNano()},
			&cli.BoolFlag{Name: "debug", Usage: "log every chunk sent"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	if !c.Bool("debug") {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	base, err := zcfg.Build()
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer func() { _ = base.Sync() }()
	logger := base.Sugar().Named("devicesim")

	scfg := serialcomm.DefaultSerialConfig(c.String("device"))
	scfg.BaudRate = c.Int("baud")
	dev, err := serialcomm.OpenDevice(scfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := NewSimulator(protocol.DefaultCommandTable(), SimulatorOptions{
		Points:    c.Int("points"),
		Fields:    c.Int("fields"),
		ChunkSize: c.Int("chunk-size"),
		ChunkGap:  c.Duration("chunk-gap"),
		Seed:      c.Int64("seed"),
	}, logger)
	logger.Infof("serving on %s", scfg.PortName)
	if err := sim.Serve(ctx, dev); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
