//go:build tinygo

package led

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"github.com/coreman2200/arcastrip/internal/critical"
	"github.com/coreman2200/arcastrip/internal/dim"
	"github.com/coreman2200/arcastrip/internal/nrz"
)

// MCU drives one pin with the cycle counted ws2812 driver. The driver derives
// its pulse timing from the CPU frequency at compile time.
type MCU struct {
	pin     machine.Pin
	dev     ws2812.Device
	irq     critical.Interrupts
	scratch []byte
}

// NewMCU configures pin as an output.
func NewMCU(pin machine.Pin) *MCU {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &MCU{pin: pin, dev: ws2812.New(pin), irq: critical.Host()}
}

func (m *MCU) String() string {
	return fmt.Sprintf("mcu{%d}", m.pin)
}

// Transmit implements Driver. The pin is bit 0 of the mask.
func (m *MCU) Transmit(buf []byte, mask byte) error {
	if len(buf) == 0 {
		return nrz.ErrEmpty
	}
	if mask == 0 {
		return nrz.ErrMask
	}
	if mask != 0x01 {
		return ErrPin
	}
	if cap(m.scratch) < len(buf) {
		m.scratch = make([]byte, len(buf))
	}
	s := m.scratch[:len(buf)]
	dim.Apply(s, buf)

	g := critical.Enter(m.irq)
	defer g.Release()
	_, err := m.dev.Write(s)
	m.pin.Low()
	return err
}

// Close drives the pin low.
func (m *MCU) Close() error {
	m.pin.Low()
	return nil
}
