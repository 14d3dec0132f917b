package nrz

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/critical"
	"github.com/coreman2200/arcastrip/internal/dim"
)

var (
	// ErrEmpty is returned when asked to send nothing.
	ErrEmpty = errors.New("nrz: empty buffer")
	// ErrMask is returned for a pin mask that selects no pin.
	ErrMask = errors.New("nrz: empty pin mask")
)

// Port is an 8 bit output register paced by a fixed clock.
//
// Stream plays one register sample per clock cycle and returns once the last
// sample is on the pins. The pins keep the last sample afterwards.
type Port interface {
	// Clock is the sample rate.
	Clock() physic.Frequency
	// Output configures the pins selected by mask as outputs.
	Output(mask byte) error
	// Level returns the current register value.
	Level() byte
	// Stream plays samples back to back.
	Stream(samples []byte) error
}

// Transmitter sends byte buffers as NRZ pulse trains on a Port.
//
// It keeps no state between calls besides a scratch buffer and is not safe
// for concurrent use; callers serialize.
type Transmitter struct {
	port    Port
	irq     critical.Interrupts
	timing  Timing
	scratch []byte
}

// New derives the pulse timing for p's clock. It fails with ErrClockTooSlow
// when the clock cannot realize a valid 0 pulse and logs a warning when the
// timing is marginal.
func New(p Port, irq critical.Interrupts) (*Transmitter, error) {
	t, err := Derive(p.Clock(), Raster)
	if err != nil {
		return nil, err
	}
	if t.Marginal() {
		log.Warn().
			Str("timing", t.String()).
			Int64("zero_ns", t.ZeroPulseNS()).
			Msg("nrz: timing is critical and may only work on WS2812B, not on WS2812(S)")
	}
	if irq == nil {
		irq = critical.None
	}
	return &Transmitter{port: p, irq: irq, timing: t}, nil
}

// Timing returns the pulse shape in use.
func (tx *Transmitter) Timing() Timing {
	return tx.timing
}

// Transmit sends every byte of buf through the dimming curve, MSB first, on
// the pins selected by mask. Other register bits keep their value. On return
// the pins are low.
//
// The whole train is played inside a critical section; the previous interrupt
// state is restored on every exit path. The caller owns the reset delay that
// must follow before the next frame.
func (tx *Transmitter) Transmit(buf []byte, mask byte) error {
	if len(buf) == 0 {
		return ErrEmpty
	}
	if mask == 0 {
		return ErrMask
	}
	if err := tx.port.Output(mask); err != nil {
		return fmt.Errorf("nrz: configure output: %w", err)
	}
	level := tx.port.Level()
	hi := level | mask
	lo := level &^ mask

	n := tx.timing.Samples(len(buf))
	if cap(tx.scratch) < n {
		tx.scratch = make([]byte, n)
	}
	samples := tx.scratch[:n]
	p := tx.timing.pulses(hi, lo)
	off := 0
	for _, b := range buf {
		off += p.encode(samples[off:], dim.Correct(b))
	}

	g := critical.Enter(tx.irq)
	defer g.Release()
	if err := tx.port.Stream(samples); err != nil {
		return fmt.Errorf("nrz: stream: %w", err)
	}
	return nil
}
