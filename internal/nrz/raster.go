package nrz

import (
	"errors"
	"fmt"
)

// ErrPulse is returned by Decode for a sample stream that is not a valid
// pulse train for the given timing.
var ErrPulse = errors.New("nrz: malformed pulse")

// Samples is the number of cycles needed to send n bytes.
func (t Timing) Samples(n int) int {
	return n * 8 * t.Period
}

// pulses holds the two bit shapes as register samples, one per cycle.
type pulses struct {
	zero []byte
	one  []byte
}

func (t Timing) pulses(hi, lo byte) pulses {
	p := pulses{zero: make([]byte, t.Period), one: make([]byte, t.Period)}
	for i := 0; i < t.Period; i++ {
		p.zero[i] = lo
		p.one[i] = lo
		if i < t.ZeroHigh {
			p.zero[i] = hi
		}
		if i < t.OneHigh {
			p.one[i] = hi
		}
	}
	return p
}

// encode writes the 8 pulses of b, MSB first, at the start of dst and returns
// the number of samples written. dst must hold 8*Period samples.
func (p pulses) encode(dst []byte, b byte) int {
	off := 0
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			off += copy(dst[off:], p.one)
		} else {
			off += copy(dst[off:], p.zero)
		}
	}
	return off
}

// Encode rasterizes src as-is, without the dimming curve, into dst and returns
// the number of samples written. hi and lo are the register values driven
// during the high and low phases. dst must hold t.Samples(len(src)) samples.
func Encode(dst, src []byte, t Timing, hi, lo byte) int {
	p := t.pulses(hi, lo)
	off := 0
	for _, b := range src {
		off += p.encode(dst[off:], b)
	}
	return off
}

// Decode recovers the bytes carried by a pulse train, looking only at the
// register bits in mask. Every period must start high, fall after exactly
// ZeroHigh or OneHigh cycles and stay low until the end of the period.
func Decode(samples []byte, mask byte, t Timing) ([]byte, error) {
	if t.Period <= 0 {
		return nil, fmt.Errorf("%w: no timing", ErrPulse)
	}
	if len(samples)%(8*t.Period) != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a whole number of bytes", ErrPulse, len(samples))
	}
	out := make([]byte, 0, len(samples)/(8*t.Period))
	var cur byte
	for bit := 0; bit*t.Period < len(samples); bit++ {
		period := samples[bit*t.Period : (bit+1)*t.Period]
		high := 0
		for high < len(period) && period[high]&mask != 0 {
			high++
		}
		for i := high; i < len(period); i++ {
			if period[i]&mask != 0 {
				return nil, fmt.Errorf("%w: bit %d rises again at cycle %d", ErrPulse, bit, i)
			}
		}
		cur <<= 1
		switch high {
		case t.ZeroHigh:
		case t.OneHigh:
			cur |= 1
		default:
			return nil, fmt.Errorf("%w: bit %d high for %d cycles", ErrPulse, bit, high)
		}
		if bit%8 == 7 {
			out = append(out, cur)
			cur = 0
		}
	}
	return out, nil
}
