package diagnostics

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/nrz"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Summary)
	}
	return fmt.Sprintf("%s %s: %s (%s)", d.Severity, d.Code, d.Summary, d.Detail)
}

// FromTiming classifies the pulse timing a clock produces with the sampled
// output's overhead.
func FromTiming(clock physic.Frequency) Diagnostic {
	t, err := nrz.Derive(clock, nrz.Raster)
	ev := map[string]any{
		"clock":     clock.String(),
		"zero_high": t.ZeroHigh,
		"one_high":  t.OneHigh,
		"period":    t.Period,
		"zero_ns":   t.ZeroPulseNS(),
		"one_ns":    t.OnePulseNS(),
		"period_ns": t.PeriodNS(),
	}
	switch {
	case errors.Is(err, nrz.ErrInvalidClock):
		return Diagnostic{
			Severity: Err, Code: "NRZ.CLOCK_INVALID", Summary: "Clock frequency is not positive",
			Evidence: map[string]any{"clock": clock.String()},
		}
	case errors.Is(err, nrz.ErrClockTooSlow):
		return Diagnostic{
			Severity: Err, Code: "NRZ.CLOCK_TOO_SLOW",
			Summary: "Clock too slow for the minimum zero pulse",
			Detail:  fmt.Sprintf("zero pulse %d ns > %d ns", t.ZeroPulseNS(), nrz.MaxZeroPulseNS),
			LikelyCauses: []string{
				"SPI or CPU clock below 1.82 MHz",
			},
			SuggestedFixes: []string{
				"Raise the clock to 2.4 MHz or more",
			},
			Evidence: ev,
		}
	case err != nil:
		return Diagnostic{Severity: Err, Code: "NRZ.TIMING", Summary: err.Error(), Evidence: ev}
	case t.Marginal():
		return Diagnostic{
			Severity: Warn, Code: "NRZ.TIMING_MARGINAL",
			Summary: "Timing is critical and may only work on WS2812B, not on WS2812(S)",
			Detail:  fmt.Sprintf("zero pulse %d ns > %d ns", t.ZeroPulseNS(), nrz.MarginalZeroPulseNS),
			SuggestedFixes: []string{
				"Use WS2812B class LEDs",
				"Raise the clock to 2.4 MHz or more",
			},
			Evidence: ev,
		}
	default:
		return Diagnostic{Severity: Info, Code: "NRZ.TIMING_OK", Summary: t.String(), Evidence: ev}
	}
}
