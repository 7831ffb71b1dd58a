package serialcomm

import (
	"context"
	"io"
	"sync"

	"github.com/tarm/serial"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// openPort opens the driver. It's a variable so tests can swap in a fake device.
var openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Port is a Channel over a serial device. mu is held for the whole of every
// operation, so a command and its response are never interleaved with another
// caller's traffic.
type Port struct {
	mu      sync.Mutex
	dev     io.ReadWriteCloser
	chunk   []byte
	pending []byte
	skipLF  bool

	closed atomic.Bool
	name   string
	logger *zap.SugaredLogger
}

var _ Channel = (*Port)(nil)

// OpenDevice opens the raw driver described by cfg without wrapping it in a Port.
// Failure is a *ConnectionError.
func OpenDevice(cfg *SerialConfig) (io.ReadWriteCloser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{Port: cfg.PortName, Err: err}
	}
	dev, err := openPort(&serial.Config{
		Name:        cfg.PortName,
		Baud:        cfg.BaudRate,
		Size:        byte(cfg.DataBits),
		Parity:      cfg.Parity.driver(),
		StopBits:    cfg.StopBits.driver(),
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, &ConnectionError{Port: cfg.PortName, Err: err}
	}
	return dev, nil
}

// Open opens the device described by cfg. Failure is a *ConnectionError.
func Open(cfg *SerialConfig, logger *zap.SugaredLogger) (*Port, error) {
	dev, err := OpenDevice(cfg)
	if err != nil {
		return nil, err
	}
	logger.Infof("opened %s at %d baud, %d data bits, %s parity, %d stop bits",
		cfg.PortName, cfg.BaudRate, cfg.DataBits, cfg.Parity, cfg.StopBits)
	p := NewPort(dev, logger)
	p.name = cfg.PortName
	return p, nil
}

// NewPort wraps an already open transport. dev.Read must return periodically
// (a driver read timeout) for deadlines and cancellation to be honoured.
func NewPort(dev io.ReadWriteCloser, logger *zap.SugaredLogger) *Port {
	return &Port{
		dev:    dev,
		chunk:  make([]byte, 64),
		name:   "serial",
		logger: logger,
	}
}

// ReadLine implements Channel.
func (p *Port) ReadLine(ctx context.Context, opts ReadOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return nil, ErrClosed
	}
	return p.readLine(ctx, opts)
}

// WriteCommand implements Channel.
func (p *Port) WriteCommand(code byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return ErrClosed
	}
	return p.write(code)
}

// Exchange implements Channel. Bytes left over from earlier traffic are dropped
// before the command goes out, so the frame returned answers this command.
func (p *Port) Exchange(ctx context.Context, code byte, opts ReadOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return nil, ErrClosed
	}
	p.discardStale()
	if err := p.write(code); err != nil {
		return nil, err
	}
	return p.readLine(ctx, opts)
}

// Closed reports whether Close has been called. It does not wait for an
// in-flight operation.
func (p *Port) Closed() bool {
	return p.closed.Load()
}

// Close waits for the in-flight operation, if any, and closes the device.
// Only the first call closes; later calls return nil.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debugf("closing %s", p.name)
	if err := p.dev.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}
