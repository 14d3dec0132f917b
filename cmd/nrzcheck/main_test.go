package main

import (
	"bytes"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/board"
)

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, run(&buf, 2400*physic.KiloHertz))
	assert.Contains(t, buf.String(), "zero high  1")
	assert.Contains(t, buf.String(), "period     3")

	buf.Reset()
	assert.Equal(t, 0, run(&buf, 2*physic.MegaHertz))
	assert.Contains(t, buf.String(), "500")

	buf.Reset()
	assert.Equal(t, 1, run(&buf, 1600*physic.KiloHertz))
	assert.Contains(t, buf.String(), "625")

	buf.Reset()
	assert.Equal(t, 1, run(&buf, 0))
	assert.Empty(t, buf.String())
}

func TestClockFlagDefaultsToBoard(t *testing.T) {
	fs := flag.NewFlagSet("nrzcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	clock := clockFlag(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, board.Clock, *clock)

	fs = flag.NewFlagSet("nrzcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	clock = clockFlag(fs)
	require.NoError(t, fs.Parse([]string{"-clock", "2MHz"}))
	assert.Equal(t, 2*physic.MegaHertz, *clock)
}

func TestRunBoardClock(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, run(&buf, board.Clock))
	assert.Contains(t, buf.String(), "400")
}
