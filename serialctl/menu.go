package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"serialctl/datalog"
	"serialctl/frame"
	"serialctl/poller"
	"serialctl/protocol"
	"serialctl/session"
)

const (
	optToggleLogger = iota + 1
	optNextSensor
	optFetch
	optPrintData
	optToggleMonitor
	optQuit
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	onColor     = color.New(color.FgGreen)
	offColor    = color.New(color.FgRed)
	warnColor   = color.New(color.FgYellow)
)

type menu struct {
	in      io.Reader
	out     io.Writer
	client  *protocol.Client
	state   *session.State
	monitor *poller.Poller
	dlog    *datalog.Writer
	logger  *zap.SugaredLogger
	clear   bool

	lines <-chan string
}

func newMenu(
	in io.Reader,
	out io.Writer,
	client *protocol.Client,
	state *session.State,
	monitor *poller.Poller,
	dlog *datalog.Writer,
	logger *zap.SugaredLogger,
) *menu {
	return &menu{
		in:      in,
		out:     out,
		client:  client,
		state:   state,
		monitor: monitor,
		dlog:    dlog,
		logger:  logger,
	}
}

// Loop renders the menu and dispatches selections until the operator quits, input
// ends or ctx is cancelled.
func (m *menu) Loop(ctx context.Context) error {
	m.lines = scanLines(m.in)
	for {
		m.render()
		line, ok := m.next(ctx)
		if !ok {
			fmt.Fprintln(m.out, "\nExiting!")
			return nil
		}
		quit, err := m.dispatch(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(m.out, "\nExiting!")
				return nil
			}
			warnColor.Fprintf(m.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(m.out, "Exiting!")
			return nil
		}
	}
}

// scanLines feeds lines from r into a channel so reads can be abandoned on cancel.
// The goroutine ends when r does.
func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (m *menu) next(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-m.lines:
		return strings.TrimSpace(line), ok
	}
}

func (m *menu) pause(ctx context.Context) {
	fmt.Fprint(m.out, "Press enter to continue...")
	m.next(ctx)
}

func (m *menu) render() {
	if m.clear {
		fmt.Fprint(m.out, "\033[H\033[2J")
	}
	headerColor.Fprintln(m.out, "Serial data logger")
	fmt.Fprintf(m.out, "Logger:  %s (believed)\n", stateString(m.state.LoggerStarted()))
	fmt.Fprintf(m.out, "Sensor:  %s\n", m.state.Registry.Current().Name())
	fmt.Fprintf(m.out, "Monitor: %s\n", stateString(m.monitor.Enabled()))
	if snap, ok := m.monitor.Latest(); ok && m.monitor.Enabled() {
		if snap.Err != nil {
			warnColor.Fprintf(m.out, "  last poll #%d failed: %v\n", snap.Seq, snap.Err)
		} else {
			fmt.Fprintf(m.out, "  last poll #%d at %s: %s\n", snap.Seq, snap.At.Format("15:04:05"), snap.Batch)
		}
	}
	fmt.Fprintf(m.out, "%d. Start/stop logger\n", optToggleLogger)
	fmt.Fprintf(m.out, "%d. Next sensor\n", optNextSensor)
	fmt.Fprintf(m.out, "%d. Fetch data\n", optFetch)
	fmt.Fprintf(m.out, "%d. Print data\n", optPrintData)
	fmt.Fprintf(m.out, "%d. Toggle monitor\n", optToggleMonitor)
	fmt.Fprintf(m.out, "%d. Quit\n", optQuit)
	fmt.Fprint(m.out, "> ")
}

func (m *menu) dispatch(ctx context.Context, line string) (bool, error) {
	opt, err := strconv.Atoi(line)
	if err != nil || opt < optToggleLogger || opt > optQuit {
		warnColor.Fprintf(m.out, "Unknown option %q\n", line)
		return false, nil
	}
	switch opt {
	case optToggleLogger:
		started, err := m.client.ToggleSessionLogger(ctx, m.state)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(m.out, "Logger %s\n", stateString(started))
	case optNextSensor:
		m.state.Registry.AdvanceCursor()
		fmt.Fprintf(m.out, "Selected %s\n", m.state.Registry.Current().Name())
	case optFetch:
		err := m.fetch(ctx)
		if ctx.Err() != nil {
			return false, err
		}
		if err != nil {
			warnColor.Fprintf(m.out, "Error: %v\n", err)
		}
		m.pause(ctx)
	case optPrintData:
		m.printData()
		m.pause(ctx)
	case optToggleMonitor:
		fmt.Fprintf(m.out, "Monitor %s\n", stateString(m.monitor.Toggle()))
	case optQuit:
		return true, nil
	}
	return false, nil
}

func (m *menu) fetch(ctx context.Context) error {
	fmt.Fprintln(m.out, "Fetching...")
	sensor, batch, ok, err := m.client.FetchCurrent(ctx, m.state)
	if err != nil {
		var malformed *frame.MalformedFrameError
		if errors.As(err, &malformed) {
			return errors.Wrap(err, "discarded malformed frame")
		}
		return err
	}
	if !ok {
		fmt.Fprintln(m.out, "No data received")
		return nil
	}
	if len(batch) == 0 {
		fmt.Fprintf(m.out, "Empty frame, keeping previous %s data\n", sensor.Name())
		return nil
	}
	fmt.Fprintf(m.out, "%s: %s\n", sensor.Name(), batch)
	if m.dlog != nil {
		if err := m.dlog.Append(sensor.Name(), batch); err != nil {
			m.logger.Warnf("data log: %v", err)
		}
	}
	return nil
}

func (m *menu) printData() {
	for _, s := range m.state.Registry.Sensors() {
		fmt.Fprintf(m.out, "%s: %s\n", s.Name(), s.Batch())
	}
}

func stateString(on bool) string {
	if on {
		return onColor.Sprint("started")
	}
	return offColor.Sprint("stopped")
}
