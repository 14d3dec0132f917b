//go:build !tinygo

package led

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/arcastrip/internal/dim"
	"github.com/coreman2200/arcastrip/internal/nrz"
)

// NRZLED drives the strip through periph's nrzled device, which does its own
// fixed 3 bit encoding. Bytes go through the dimming curve first so the output
// matches the sampled transmitter.
type NRZLED struct {
	p       spi.PortCloser
	dev     *nrzled.Dev
	scratch []byte
}

// OpenNRZLED opens the named SPI port for n pixels of channels bytes.
func OpenNRZLED(name string, n, channels int, f physic.Frequency) (*NRZLED, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("led: open spi %q: %w", name, err)
	}
	d, err := NewNRZLED(p, n, channels, f)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return d, nil
}

// NewNRZLED wraps p. f is the SPI clock, three clocks per bit.
func NewNRZLED(p spi.PortCloser, n, channels int, f physic.Frequency) (*NRZLED, error) {
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: n, Channels: channels, Freq: f})
	if err != nil {
		return nil, fmt.Errorf("led: nrzled: %w", err)
	}
	return &NRZLED{p: p, dev: dev}, nil
}

func (d *NRZLED) String() string {
	return d.dev.String()
}

// Transmit implements Driver. The device owns the MOSI line only.
func (d *NRZLED) Transmit(buf []byte, mask byte) error {
	if len(buf) == 0 {
		return nrz.ErrEmpty
	}
	if mask == 0 {
		return nrz.ErrMask
	}
	if mask != 0x01 {
		return fmt.Errorf("%w: %#02x", ErrPin, mask)
	}
	if cap(d.scratch) < len(buf) {
		d.scratch = make([]byte, len(buf))
	}
	s := d.scratch[:len(buf)]
	dim.Apply(s, buf)
	_, err := d.dev.Write(s)
	return err
}

// Close turns the LEDs off and closes the port.
func (d *NRZLED) Close() error {
	if err := d.dev.Halt(); err != nil {
		_ = d.p.Close()
		return err
	}
	return d.p.Close()
}
