package frame

import "fmt"

// MalformedFrameError is returned when a field of a non-empty frame is not a base-10
// integer. The whole frame is rejected.
type MalformedFrameError struct {
	Point int
	Field int
	Text  string
	Err   error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: point %d field %d %q: %v", e.Point, e.Field, e.Text, e.Err)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}
