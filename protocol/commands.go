// Package protocol maps the controller's operations onto the device's single-byte
// commands and correlates each command with its response.
package protocol

import "github.com/pkg/errors"

// CommandTable holds the command bytes the firmware understands and which of the
// logger codes a toggle sends.
//
// The toggle is keyed by the state the host currently believes in. The firmware this
// was written against expects START while the logger is believed started and STOP
// while it is believed stopped; that reads inverted but it is what the device gets,
// so it is kept as the default and left to configuration.
type CommandTable struct {
	Fetch byte
	Start byte
	Stop  byte

	WhenStarted byte
	WhenStopped byte
}

// DefaultCommandTable returns F/S/T with the device's toggle mapping.
func DefaultCommandTable() CommandTable {
	return CommandTable{
		Fetch:       'F',
		Start:       'S',
		Stop:        'T',
		WhenStarted: 'S',
		WhenStopped: 'T',
	}
}

// ToggleCode returns the byte to send when the logger is believed to be in state
// current.
func (t CommandTable) ToggleCode(current bool) byte {
	if current {
		return t.WhenStarted
	}
	return t.WhenStopped
}

// Validate checks that the codes are set and distinct, and that the toggle mapping
// only uses the start and stop codes.
func (t CommandTable) Validate() error {
	if t.Fetch == 0 || t.Start == 0 || t.Stop == 0 {
		return errors.New("command codes cannot be zero")
	}
	if t.Fetch == t.Start || t.Fetch == t.Stop || t.Start == t.Stop {
		return errors.Errorf("command codes must be distinct, got fetch=%q start=%q stop=%q", t.Fetch, t.Start, t.Stop)
	}
	for _, c := range []byte{t.WhenStarted, t.WhenStopped} {
		if c != t.Start && c != t.Stop {
			return errors.Errorf("toggle code %q is neither start %q nor stop %q", c, t.Start, t.Stop)
		}
	}
	if t.WhenStarted == t.WhenStopped {
		return errors.New("toggle must send different codes for started and stopped")
	}
	return nil
}
