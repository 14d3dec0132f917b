// Package board is the build-time configuration of the strip output: the clock
// pacing the data line and the pin carrying it. Changing either means
// rebuilding.
package board

import (
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/nrz"
)

//go:generate go run ../../cmd/nrzcheck

const (
	// ClockHz is the SPI bit clock. At 2.5 MHz each protocol bit is three SPI
	// bits, 100 for a 0 and 110 for a 1, and the frame matches what
	// periph's nrzled sends.
	ClockHz = 2500000
	// Mask selects the data line. SPI has a single data out line.
	Mask byte = 0x01
	// Device is the default SPI port.
	Device = "/dev/spidev0.0"
)

// Clock is ClockHz as a frequency.
const Clock = ClockHz * physic.Hertz

// A 0 pulse lasts at least one cycle. This constant overflows, and the build
// fails, when one cycle at ClockHz is longer than nrz.MaxZeroPulseNS.
const _ = uint(ClockHz*nrz.MaxZeroPulseNS - nrz.MinPhaseCycles*1000000000)
