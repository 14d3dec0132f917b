//go:build !tinygo

package led

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/dim"
	"github.com/coreman2200/arcastrip/internal/nrz"
)

type canvas struct {
	n      int
	img    *image.NRGBA
	halted bool
}

func (c *canvas) String() string          { return "canvas" }
func (c *canvas) Halt() error             { c.halted = true; return nil }
func (c *canvas) ColorModel() color.Model { return color.NRGBAModel }
func (c *canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.n, 1) }
func (c *canvas) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	c.img = image.NewNRGBA(r)
	for x := r.Min.X; x < r.Max.X; x++ {
		c.img.Set(x, 0, src.At(x+sp.X, sp.Y))
	}
	return nil
}

func TestSimDecodesFrame(t *testing.T) {
	cv := &canvas{n: 2}
	s, err := NewSim(cv, clock, "GRB")
	require.NoError(t, err)
	tx, err := nrz.New(s, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Transmit([]byte{10, 200, 30, 0, 255, 0}, 0x04))
	want := []byte{dim.Correct(10), dim.Correct(200), dim.Correct(30), 0, 255, 0}
	assert.Equal(t, want, s.Last())
	assert.Equal(t, 1, s.Frames())
	assert.Equal(t, byte(0), s.Level()&0x04)

	require.NotNil(t, cv.img)
	assert.Equal(t, color.NRGBA{R: dim.Correct(200), G: dim.Correct(10), B: dim.Correct(30), A: 255}, cv.img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, cv.img.NRGBAAt(1, 0))

	require.NoError(t, s.Close())
	assert.True(t, cv.halted)
}

func TestSimRGBW(t *testing.T) {
	cv := &canvas{n: 1}
	s, err := NewSim(cv, clock, "GRBW")
	require.NoError(t, err)
	tx, err := nrz.New(s, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Transmit([]byte{0, 0, 0, 255}, 0x01))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, cv.img.NRGBAAt(0, 0))
}

func TestSimRejectsMalformed(t *testing.T) {
	s, err := NewSim(&canvas{n: 1}, clock, "GRB")
	require.NoError(t, err)
	require.NoError(t, s.Output(0x01))
	samples := make([]byte, 24)
	for i := range samples {
		samples[i] = 1
	}
	err = s.Stream(samples)
	assert.True(t, errors.Is(err, nrz.ErrPulse))
	assert.Equal(t, 0, s.Frames())
}

func TestSimRejectsSlowClock(t *testing.T) {
	_, err := NewSim(&canvas{n: 1}, 1600*physic.KiloHertz, "GRB")
	assert.True(t, errors.Is(err, nrz.ErrClockTooSlow))
	_, err = NewSim(&canvas{n: 1}, clock, "GR")
	assert.Error(t, err)
}

func TestOpenSim(t *testing.T) {
	d, err := Open(&Opts{Backend: BackendSim, Clock: clock, NumPixels: 3, Channels: 3, Order: "GRB"})
	require.NoError(t, err)
	defer d.Close()
	pd, ok := d.(*PortDriver)
	require.True(t, ok)
	assert.Equal(t, 3, pd.Timing().Period)

	require.NoError(t, d.Transmit(make([]byte, 9), 0x01))
	assert.Equal(t, make([]byte, 9), pd.Port().(*Sim).Last())
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(&Opts{Backend: "pwm"})
	assert.Error(t, err)
}
