package serialcomm

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Parity is the serial parity setting.
type Parity int

const (
	// NoParity disables parity checking.
	NoParity Parity = iota
	// OddParity enables odd parity.
	OddParity
	// EvenParity enables even parity.
	EvenParity
)

// ParseParity accepts "none", "odd" or "even" (or their first letter).
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n":
		return NoParity, nil
	case "odd", "o":
		return OddParity, nil
	case "even", "e":
		return EvenParity, nil
	default:
		return NoParity, errors.Errorf("unknown parity %q", s)
	}
}

func (p Parity) String() string {
	switch p {
	case OddParity:
		return "odd"
	case EvenParity:
		return "even"
	default:
		return "none"
	}
}

func (p Parity) driver() serial.Parity {
	switch p {
	case OddParity:
		return serial.ParityOdd
	case EvenParity:
		return serial.ParityEven
	default:
		return serial.ParityNone
	}
}

// StopBits is the number of stop bits per character.
type StopBits int

const (
	// OneStopBit sends one stop bit.
	OneStopBit StopBits = 1
	// TwoStopBits sends two stop bits.
	TwoStopBits StopBits = 2
)

// ParseStopBits accepts 1 or 2.
func ParseStopBits(n int) (StopBits, error) {
	switch n {
	case 1:
		return OneStopBit, nil
	case 2:
		return TwoStopBits, nil
	default:
		return 0, errors.Errorf("unsupported stop bits %d", n)
	}
}

func (s StopBits) driver() serial.StopBits {
	if s == TwoStopBits {
		return serial.Stop2
	}
	return serial.Stop1
}
