// Package power drives the optional strip power-enable line.
package power

import "errors"

// ErrUnsupported is returned when a line is configured on a platform without
// GPIO character devices.
var ErrUnsupported = errors.New("power: gpio lines not supported on this platform")

// Consumer is the label the line is requested under.
const Consumer = "ledstrip"
