// Package metrics defines the sink interface training reports into.
package metrics

import "log"

// Sink receives named scalar observations tagged with the epoch they
// were measured at. Implementations must be safe for sequential use
// from the training loop; the loop never calls a sink concurrently.
type Sink interface {
	Scalar(name string, value float64, epoch int)
}

// Nop discards every observation.
type Nop struct{}

// Scalar implements Sink.
func (Nop) Scalar(string, float64, int) {}

// Log writes observations to the standard logger, one line each.
type Log struct{}

// Scalar implements Sink.
func (Log) Scalar(name string, value float64, epoch int) {
	log.Printf("epoch %d: %s = %.6f", epoch, name, value)
}

// Multi fans observations out to several sinks in order.
type Multi []Sink

// Scalar implements Sink.
func (m Multi) Scalar(name string, value float64, epoch int) {
	for _, s := range m {
		s.Scalar(name, value, epoch)
	}
}

// Recorder stores observations in memory. Intended for tests and for
// programmatic inspection after a run.
type Recorder struct {
	Observations []Observation
}

// Observation is one recorded scalar.
type Observation struct {
	Name  string
	Value float64
	Epoch int
}

// Scalar implements Sink.
func (r *Recorder) Scalar(name string, value float64, epoch int) {
	r.Observations = append(r.Observations, Observation{Name: name, Value: value, Epoch: epoch})
}

// Last returns the most recent observation with the given name.
func (r *Recorder) Last(name string) (Observation, bool) {
	for i := len(r.Observations) - 1; i >= 0; i-- {
		if r.Observations[i].Name == name {
			return r.Observations[i], true
		}
	}
	return Observation{}, false
}
