// Package led provides the output backends a strip can be driven through.
package led

import (
	"errors"
	"io"
)

// ErrPin is returned when a backend is asked to drive a pin it does not have.
var ErrPin = errors.New("led: pin mask not available on this output")

// Driver abstracts an LED output sink.
type Driver interface {
	// Transmit sends buf once as an NRZ pulse train on the pins in mask.
	Transmit(buf []byte, mask byte) error
	// Close releases resources.
	io.Closer
	String() string
}
