package nrz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func mustDerive(t *testing.T, f physic.Frequency) Timing {
	t.Helper()
	tm, err := Derive(f, Raster)
	require.NoError(t, err)
	return tm
}

func TestEncodeShapes(t *testing.T) {
	tm := mustDerive(t, 2400*physic.KiloHertz)
	dst := make([]byte, tm.Samples(1))
	n := Encode(dst, []byte{0xA0}, tm, 1, 0)
	require.Equal(t, 24, n)
	want := []byte{
		1, 1, 0, // 1
		1, 0, 0, // 0
		1, 1, 0, // 1
		1, 0, 0,
		1, 0, 0,
		1, 0, 0,
		1, 0, 0,
		1, 0, 0,
	}
	assert.Equal(t, want, dst)
}

func TestEncodePreservesOtherPins(t *testing.T) {
	tm := mustDerive(t, 2400*physic.KiloHertz)
	dst := make([]byte, tm.Samples(1))
	// Pin 2 driven, pin 7 held high by someone else.
	Encode(dst, []byte{0x00}, tm, 0x84, 0x80)
	for i, s := range dst {
		assert.Equal(t, byte(0x80), s&0x80, "sample %d", i)
	}
	assert.Equal(t, byte(0x80), dst[len(dst)-1])
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, f := range []physic.Frequency{2400 * physic.KiloHertz, 8 * physic.MegaHertz} {
		tm := mustDerive(t, f)
		src := []byte{0x00, 0xFF, 0x5A, 0x81}
		dst := make([]byte, tm.Samples(len(src)))
		Encode(dst, src, tm, 0x10, 0)
		got, err := Decode(dst, 0x10, tm)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
}

func TestDecodeRejects(t *testing.T) {
	tm := mustDerive(t, 2400*physic.KiloHertz)

	_, err := Decode(make([]byte, 5), 1, tm)
	assert.True(t, errors.Is(err, ErrPulse))

	// A period that never goes high.
	_, err = Decode(make([]byte, tm.Samples(1)), 1, tm)
	assert.True(t, errors.Is(err, ErrPulse))

	// Glitch in the low phase.
	dst := make([]byte, tm.Samples(1))
	Encode(dst, []byte{0}, tm, 1, 0)
	dst[2] = 1
	_, err = Decode(dst, 1, tm)
	assert.True(t, errors.Is(err, ErrPulse))

	_, err = Decode(nil, 1, Timing{})
	assert.True(t, errors.Is(err, ErrPulse))
}
