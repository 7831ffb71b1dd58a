// Package session holds the host-side state of one controller run: the fixed list
// of sensors with their latest batches, the sensor cursor and the believed logger
// state. It is created once at startup and passed to whoever needs it.
package session

import (
	"sync"

	"github.com/pkg/errors"

	"serialctl/frame"
)

// DefaultSensorNames is the device's sensor set, in cursor order.
var DefaultSensorNames = []string{"Temperature", "Humidity", "Infrared"}

// Sensor is one named sensor and the most recent batch attributed to it.
type Sensor struct {
	name string

	mu    sync.RWMutex
	batch frame.Batch
}

// Name returns the sensor's name.
func (s *Sensor) Name() string {
	return s.name
}

// Batch returns the latest batch, empty until the first successful fetch.
func (s *Sensor) Batch() frame.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch.Clone()
}

func (s *Sensor) store(b frame.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = b.Clone()
}

// Registry is a fixed, ordered set of sensors with a circular cursor.
type Registry struct {
	mu      sync.RWMutex
	sensors []*Sensor
	cursor  int
}

// NewRegistry creates one sensor per name, cursor on the first.
func NewRegistry(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one sensor is required")
	}
	seen := make(map[string]struct{}, len(names))
	sensors := make([]*Sensor, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, errors.New("sensor name cannot be empty")
		}
		if _, ok := seen[name]; ok {
			return nil, errors.Errorf("duplicate sensor %q", name)
		}
		seen[name] = struct{}{}
		sensors = append(sensors, &Sensor{name: name, batch: frame.Batch{}})
	}
	return &Registry{sensors: sensors}, nil
}

// Len returns the number of sensors.
func (r *Registry) Len() int {
	return len(r.sensors)
}

// Index returns the cursor position.
func (r *Registry) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

// AdvanceCursor moves to the next sensor, wrapping after the last, and returns the
// new index.
func (r *Registry) AdvanceCursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = (r.cursor + 1) % len(r.sensors)
	return r.cursor
}

// Current returns the sensor under the cursor.
func (r *Registry) Current() *Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sensors[r.cursor]
}

// StoreBatch replaces the current sensor's batch and returns that sensor. The
// attribution is the host's alone: the device is never told which sensor is
// selected.
func (r *Registry) StoreBatch(b frame.Batch) *Sensor {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sensors[r.cursor]
	s.store(b)
	return s
}

// Sensors returns the sensors in cursor order.
func (r *Registry) Sensors() []*Sensor {
	return append([]*Sensor(nil), r.sensors...)
}
