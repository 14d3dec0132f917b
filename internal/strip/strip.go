// Package strip adapts pixel records to the NRZ transmitter.
//
// A Strip knows the record width of its LEDs (3 bytes for RGB, 4 for RGBW),
// the channel order they expect and how long the line must stay idle after a
// frame for the chain to latch it. It also implements display.Drawer so any
// image can be pushed to the strip.
package strip

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"periph.io/x/conn/v3/display"
)

var (
	// ErrLength is returned when a buffer is shorter than the pixel count it
	// is sent with.
	ErrLength = errors.New("strip: buffer shorter than pixel count")
	// ErrOrder is returned for an invalid channel order.
	ErrOrder = errors.New("strip: invalid channel order")
)

// Transmitter sends one buffer as a pulse train on the pins in mask. It does
// not wait for the reset time.
type Transmitter interface {
	Transmit(buf []byte, mask byte) error
}

// Opts configures a Strip.
type Opts struct {
	Family    Family
	NumPixels int
	// Order is the channel order on the wire, e.g. "GRB" or "GRBW". Defaults
	// to GRB or GRBW depending on Family.Channels.
	Order string
	// Mask is the default pin mask.
	Mask byte
}

// Strip is a handle to a chain of LEDs on one line.
type Strip struct {
	tx     Transmitter
	family Family
	n      int
	mask   byte
	order  string
	buf    []byte
	sleep  func(time.Duration)
}

// New returns a Strip sending through tx.
func New(tx Transmitter, opts *Opts) (*Strip, error) {
	f := opts.Family
	if f.Channels == 0 {
		f = WS2812B
	}
	if f.Channels != 3 && f.Channels != 4 {
		return nil, fmt.Errorf("strip: %s has %d channels, want 3 or 4", f.Name, f.Channels)
	}
	if opts.NumPixels <= 0 {
		return nil, fmt.Errorf("strip: invalid pixel count %d", opts.NumPixels)
	}
	order := strings.ToUpper(opts.Order)
	if order == "" {
		order = "GRBW"[:f.Channels]
	}
	if err := checkOrder(order, f.Channels); err != nil {
		return nil, err
	}
	mask := opts.Mask
	if mask == 0 {
		mask = 0x01
	}
	return &Strip{
		tx:     tx,
		family: f,
		n:      opts.NumPixels,
		mask:   mask,
		order:  order,
		buf:    make([]byte, opts.NumPixels*f.Channels),
		sleep:  time.Sleep,
	}, nil
}

// Family returns the LED family the strip was configured for.
func (s *Strip) Family() Family { return s.family }

// NumPixels returns the strip length.
func (s *Strip) NumPixels() int { return s.n }

// Order returns the channel order on the wire.
func (s *Strip) Order() string { return s.order }

// SetLEDs sends leds RGB records from buf on the default pin and holds the
// line idle for the family's reset time.
func (s *Strip) SetLEDs(buf []byte, leds int) error {
	return s.send(buf, leds*3, s.mask)
}

// SetLEDsPin is SetLEDs on an explicit pin mask.
func (s *Strip) SetLEDsPin(buf []byte, leds int, mask byte) error {
	return s.send(buf, leds*3, mask)
}

// SetLEDsRGBW sends leds RGBW records from buf on the default pin and holds the
// line idle for the family's reset time.
func (s *Strip) SetLEDsRGBW(buf []byte, leds int) error {
	return s.send(buf, leds*4, s.mask)
}

// Send transmits buf as-is on the default pin without waiting for the reset
// time. The caller must leave the line idle long enough before the next frame.
func (s *Strip) Send(buf []byte) error {
	return s.tx.Transmit(buf, s.mask)
}

// Write sends raw pixel records in the strip's own record width and waits
// for the reset time. It implements io.Writer.
func (s *Strip) Write(pixels []byte) (int, error) {
	if len(pixels)%s.family.Channels != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a whole number of %d byte records", ErrLength, len(pixels), s.family.Channels)
	}
	if err := s.send(pixels, len(pixels), s.mask); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

func (s *Strip) send(buf []byte, n int, mask byte) error {
	if n < 0 || len(buf) < n {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrLength, len(buf), n)
	}
	if err := s.tx.Transmit(buf[:n], mask); err != nil {
		return err
	}
	s.sleep(s.family.Reset)
	return nil
}

// String implements conn.Resource.
func (s *Strip) String() string {
	return fmt.Sprintf("strip{%s, %d, %s}", s.family.Name, s.n, s.order)
}

// Halt turns every LED off.
func (s *Strip) Halt() error {
	for i := range s.buf {
		s.buf[i] = 0
	}
	return s.flush()
}

// ColorModel implements display.Drawer.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. Min is always {0, 0}.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.n, 1)
}

// Draw implements display.Drawer.
//
// Alpha is ignored. On RGBW strips the common part of R, G and B is moved to
// the white channel.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	if dY := r.Dy(); dY < srcR.Dy() {
		srcR.Max.Y = srcR.Min.Y + dY
	}
	if srcR.Empty() {
		return nil
	}
	for x := 0; x < srcR.Dx(); x++ {
		c := color.NRGBAModel.Convert(src.At(srcR.Min.X+x, srcR.Min.Y)).(color.NRGBA)
		s.pack(r.Min.X+x, c)
	}
	return s.flush()
}

func (s *Strip) flush() error {
	if s.family.Channels == 4 {
		return s.SetLEDsRGBW(s.buf, s.n)
	}
	return s.SetLEDs(s.buf, s.n)
}

func (s *Strip) pack(i int, c color.NRGBA) {
	r, g, b, w := c.R, c.G, c.B, byte(0)
	if s.family.Channels == 4 {
		w = min3(r, g, b)
		r, g, b = r-w, g-w, b-w
	}
	rec := s.buf[i*s.family.Channels : (i+1)*s.family.Channels]
	for j := 0; j < len(rec); j++ {
		switch s.order[j] {
		case 'R':
			rec[j] = r
		case 'G':
			rec[j] = g
		case 'B':
			rec[j] = b
		case 'W':
			rec[j] = w
		}
	}
}

func checkOrder(order string, channels int) error {
	if len(order) != channels {
		return fmt.Errorf("%w: %q for %d channels", ErrOrder, order, channels)
	}
	want := "RGBW"[:channels]
	for _, c := range want {
		if strings.Count(order, string(c)) != 1 {
			return fmt.Errorf("%w: %q", ErrOrder, order)
		}
	}
	return nil
}

func min3(a, b, c byte) byte {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

var _ display.Drawer = &Strip{}
