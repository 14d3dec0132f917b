// Command nrzcheck prints the pulse timing a host clock produces and checks
// it against the LED limits. It exits 1 when the clock is too slow and warns
// when only WS2812B class parts will accept the timing. Without -clock it
// checks the board clock.
//
//	nrzcheck -clock 16MHz
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/board"
	diag "github.com/coreman2200/arcastrip/internal/diagnostics"
	"github.com/coreman2200/arcastrip/internal/nrz"
)

func main() {
	clock := clockFlag(flag.CommandLine)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	os.Exit(run(os.Stdout, *clock))
}

// clockFlag registers -clock on fs, defaulting to board.Clock.
func clockFlag(fs *flag.FlagSet) *physic.Frequency {
	clock := board.Clock
	fs.Var(&clock, "clock", "host clock frequency, e.g. 2.5MHz or 16MHz")
	return &clock
}

func run(w io.Writer, clock physic.Frequency) int {
	t, err := nrz.Derive(clock, nrz.Raster)
	if err == nil || t.Period > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "clock\t%s\t\t\n", clock)
		fmt.Fprintf(tw, "phase\tcycles\tns\ttarget ns\n")
		fmt.Fprintf(tw, "zero high\t%d\t%d\t%d\n", t.ZeroHigh, t.ZeroPulseNS(), nrz.ZeroPulseNS)
		fmt.Fprintf(tw, "one high\t%d\t%d\t%d\n", t.OneHigh, t.OnePulseNS(), nrz.OnePulseNS)
		fmt.Fprintf(tw, "period\t%d\t%d\t%d\n", t.Period, t.PeriodNS(), nrz.TotalPeriodNS)
		tw.Flush()
	}

	d := diag.FromTiming(clock)
	switch d.Severity {
	case diag.Err:
		log.Error().Str("code", d.Code).Str("clock", clock.String()).Msg(d.Summary)
		return 1
	case diag.Warn:
		log.Warn().Str("code", d.Code).Str("clock", clock.String()).Msg(d.Summary)
	default:
		log.Info().Str("clock", clock.String()).Msg("timing ok")
	}
	return 0
}
