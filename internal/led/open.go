//go:build !tinygo

package led

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/critical"
	"github.com/coreman2200/arcastrip/internal/nrz"
)

// Backend names accepted by Open.
const (
	BackendSPI    = "spi"
	BackendNRZLED = "nrzled"
	BackendSim    = "sim"
)

// Opts selects and configures a backend.
type Opts struct {
	Backend   string
	Device    string // SPI port name, "" for the first one
	Clock     physic.Frequency
	NumPixels int
	Channels  int
	Order     string
}

// Open returns the Driver selected by o.Backend.
func Open(o *Opts) (Driver, error) {
	switch o.Backend {
	case BackendSPI, "":
		p, err := OpenSPI(o.Device, o.Clock)
		if err != nil {
			return nil, err
		}
		d, err := newPortDriver(p, critical.Host())
		if err != nil {
			return nil, err
		}
		if err := p.CheckFrame(d.Timing(), o.NumPixels*o.Channels); err != nil {
			_ = d.Close()
			return nil, err
		}
		return d, nil
	case BackendNRZLED:
		return OpenNRZLED(o.Device, o.NumPixels, o.Channels, o.Clock)
	case BackendSim:
		s, err := NewConsole(o.NumPixels, o.Clock, o.Order)
		if err != nil {
			return nil, err
		}
		return newPortDriver(s, critical.None)
	default:
		return nil, fmt.Errorf("led: unknown backend %q", o.Backend)
	}
}

// Port is an nrz.Port owned by a Driver.
type Port interface {
	nrz.Port
	io.Closer
	String() string
}

// PortDriver sends through an nrz.Transmitter on a port it owns.
type PortDriver struct {
	*nrz.Transmitter
	port Port
}

func newPortDriver(p Port, irq critical.Interrupts) (*PortDriver, error) {
	tx, err := nrz.New(p, irq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	log.Info().Str("port", p.String()).Str("timing", tx.Timing().String()).Msg("led: output ready")
	return &PortDriver{Transmitter: tx, port: p}, nil
}

// NewPortDriver wraps p. A nil irq uses the host's critical section.
func NewPortDriver(p Port, irq critical.Interrupts) (*PortDriver, error) {
	if irq == nil {
		irq = critical.Host()
	}
	return newPortDriver(p, irq)
}

// Port returns the underlying port.
func (d *PortDriver) Port() Port { return d.port }

func (d *PortDriver) String() string { return d.port.String() }

// Close closes the port.
func (d *PortDriver) Close() error { return d.port.Close() }
