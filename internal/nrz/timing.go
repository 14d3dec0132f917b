// Package nrz implements the self-clocked one-wire protocol spoken by
// WS2811/WS2812/WS2812B and SK6812 LEDs.
//
// Every data bit is one pulse of constant length. The line goes high at the
// start of the bit and falls early for a 0 and late for a 1. Pulse widths are
// expressed in cycles of the clock that paces the output Port, so everything
// here is derived from that one frequency.
package nrz

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Protocol targets at 800 kHz signalling, in nanoseconds.
const (
	ZeroPulseNS   = 350
	OnePulseNS    = 900
	TotalPeriodNS = 1250
)

// Limits on the realized "0" high time. Receivers only care about this one
// parameter: a 0 that stays high too long is read as a 1.
const (
	// MaxZeroPulseNS is the longest 0 pulse any supported part accepts.
	MaxZeroPulseNS = 550
	// MarginalZeroPulseNS is the longest 0 pulse older WS2812(S) parts accept.
	// Between this and MaxZeroPulseNS only WS2812B class parts are reliable.
	MarginalZeroPulseNS = 450
)

var (
	// ErrClockTooSlow means the clock cannot produce a short enough 0 pulse.
	ErrClockTooSlow = errors.New("nrz: clock too slow for the minimum zero pulse")
	// ErrInvalidClock is returned for a non-positive clock frequency.
	ErrInvalidClock = errors.New("nrz: invalid clock frequency")
)

// Overhead is the number of cycles a pulse mechanism spends that cannot be
// shortened: before the 0 falling edge, between the 0 and 1 falling edges and
// after the 1 falling edge until the next rising edge.
type Overhead struct {
	Low   int
	High  int
	Total int
}

// MinPhaseCycles is the shortest phase a sampled output can produce.
const MinPhaseCycles = 1

// Raster is the overhead of a sampled output where each cycle is one sample:
// every phase lasts at least one sample.
var Raster = Overhead{Low: MinPhaseCycles, High: MinPhaseCycles, Total: MinPhaseCycles}

// Timing is the pulse shape in clock cycles.
type Timing struct {
	Clock    physic.Frequency
	ZeroHigh int
	OneHigh  int
	Period   int
}

// Derive computes the pulse shape for a clock. It is a pure function of its
// arguments.
//
// The 0 window is truncated so it never exceeds the target unless the
// mechanism overhead forces it; the 1 window and the period are rounded to the
// nearest cycle.
func Derive(clock physic.Frequency, o Overhead) (Timing, error) {
	khz := int64(clock / physic.KiloHertz)
	if khz <= 0 {
		return Timing{}, fmt.Errorf("%w: %s", ErrInvalidClock, clock)
	}
	zero := int(khz * ZeroPulseNS / 1000000)
	one := int((khz*OnePulseNS + 500000) / 1000000)
	total := int((khz*TotalPeriodNS + 500000) / 1000000)

	t := Timing{
		Clock:    clock,
		ZeroHigh: maxInt(zero, o.Low),
	}
	t.OneHigh = maxInt(one, t.ZeroHigh+o.High)
	t.Period = maxInt(total, t.OneHigh+o.Total)

	if ns := t.ZeroPulseNS(); ns > MaxZeroPulseNS {
		return t, fmt.Errorf("%w: %s gives %d ns, need <= %d ns", ErrClockTooSlow, clock, ns, MaxZeroPulseNS)
	}
	return t, nil
}

// ZeroPulseNS is the realized 0 high time in nanoseconds, truncated.
func (t Timing) ZeroPulseNS() int64 {
	return t.cyclesNS(t.ZeroHigh)
}

// OnePulseNS is the realized 1 high time in nanoseconds, truncated.
func (t Timing) OnePulseNS() int64 {
	return t.cyclesNS(t.OneHigh)
}

// PeriodNS is the realized bit period in nanoseconds, truncated.
func (t Timing) PeriodNS() int64 {
	return t.cyclesNS(t.Period)
}

// Marginal reports whether the 0 pulse is only tolerated by WS2812B class
// parts.
func (t Timing) Marginal() bool {
	return t.ZeroPulseNS() > MarginalZeroPulseNS
}

// Cycle is the duration of one clock cycle.
func (t Timing) Cycle() time.Duration {
	return t.Clock.Period()
}

// Duration is how long n bytes take on the wire, reset excluded.
func (t Timing) Duration(n int) time.Duration {
	return time.Duration(n*8*t.Period) * t.Cycle()
}

func (t Timing) String() string {
	return fmt.Sprintf("nrz{%s 0:%dc/%dns 1:%dc/%dns T:%dc/%dns}",
		t.Clock, t.ZeroHigh, t.ZeroPulseNS(), t.OneHigh, t.OnePulseNS(), t.Period, t.PeriodNS())
}

func (t Timing) cyclesNS(c int) int64 {
	khz := int64(t.Clock / physic.KiloHertz)
	if khz <= 0 {
		return 0
	}
	return int64(c) * 1000000 / khz
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
