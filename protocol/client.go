package protocol

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"serialctl/frame"
	"serialctl/serialcomm"
	"serialctl/session"
)

// Client issues commands over a serial channel.
type Client struct {
	ch     serialcomm.Channel
	cmds   CommandTable
	read   serialcomm.ReadOptions
	logger *zap.SugaredLogger
}

// NewClient returns a client that waits for fetch responses according to read.
func NewClient(ch serialcomm.Channel, cmds CommandTable, read serialcomm.ReadOptions, logger *zap.SugaredLogger) *Client {
	return &Client{
		ch:     ch,
		cmds:   cmds,
		read:   read,
		logger: logger,
	}
}

// WithReadOptions returns a client sharing the same channel but waiting for
// responses according to read.
func (c *Client) WithReadOptions(read serialcomm.ReadOptions) *Client {
	cp := *c
	cp.read = read
	return &cp
}

// Commands returns the client's command table.
func (c *Client) Commands() CommandTable {
	return c.cmds
}

// Fetch sends FETCH and decodes the response frame. ok is false when no complete
// frame arrived in time, which is a normal outcome and not an error.
//
// The device is never told which sensor to report, so the batch is whatever it is
// currently sending.
func (c *Client) Fetch(ctx context.Context) (batch frame.Batch, ok bool, err error) {
	raw, err := c.ch.Exchange(ctx, c.cmds.Fetch, c.read)
	if err != nil {
		if serialcomm.IsNoData(err) {
			c.logger.Debugf("fetch: %v", err)
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "fetch")
	}
	batch, err = frame.Decode(raw)
	if err != nil {
		c.logger.Warnf("discarding frame %q: %v", raw, err)
		return nil, false, err
	}
	c.logger.Debugf("fetched %d data points", len(batch))
	return batch, true, nil
}

// ToggleLogger sends the code mapped to current and returns the new believed state.
// Nothing is read back: the device does not acknowledge, so the flip is optimistic.
// On a write error the state is unchanged.
func (c *Client) ToggleLogger(ctx context.Context, current bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return current, err
	}
	code := c.cmds.ToggleCode(current)
	if err := c.ch.WriteCommand(code); err != nil {
		return current, errors.Wrapf(err, "sending logger code %q", code)
	}
	c.logger.Infof("sent logger code %q, logger now believed %s", code, startedString(!current))
	return !current, nil
}

// FetchCurrent fetches a batch and stores it on the registry's current sensor.
// An empty frame leaves the sensor's previous batch in place.
func (c *Client) FetchCurrent(ctx context.Context, st *session.State) (*session.Sensor, frame.Batch, bool, error) {
	batch, ok, err := c.Fetch(ctx)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	if len(batch) == 0 {
		return st.Registry.Current(), batch, true, nil
	}
	return st.Registry.StoreBatch(batch), batch, true, nil
}

// ToggleSessionLogger toggles the logger and records the new believed state.
func (c *Client) ToggleSessionLogger(ctx context.Context, st *session.State) (bool, error) {
	started, err := c.ToggleLogger(ctx, st.LoggerStarted())
	if err != nil {
		return st.LoggerStarted(), err
	}
	st.SetLoggerStarted(started)
	return started, nil
}

func startedString(started bool) string {
	if started {
		return "started"
	}
	return "stopped"
}
