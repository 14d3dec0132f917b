//go:build !tinygo

package led

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/screen1d"

	"github.com/coreman2200/arcastrip/internal/nrz"
)

// Sim is a virtual 8 bit nrz.Port. Every streamed frame is decoded back into
// bytes and drawn as pixels on a display.Drawer, the terminal by default.
type Sim struct {
	d      display.Drawer
	clock  physic.Frequency
	timing nrz.Timing
	order  string

	mu      sync.Mutex
	outputs byte
	level   byte
	last    []byte
	frames  int
}

// NewConsole returns a Sim drawing n pixels on the terminal.
func NewConsole(n int, f physic.Frequency, order string) (*Sim, error) {
	return NewSim(screen1d.New(&screen1d.Opts{X: n}), f, order)
}

// NewSim returns a Sim drawing on d. order is the channel order of the
// records on the wire, e.g. "GRB".
func NewSim(d display.Drawer, f physic.Frequency, order string) (*Sim, error) {
	t, err := nrz.Derive(f, nrz.Raster)
	if err != nil {
		return nil, err
	}
	if len(order) != 3 && len(order) != 4 {
		return nil, fmt.Errorf("led: sim: bad channel order %q", order)
	}
	return &Sim{d: d, clock: f, timing: t, order: order}, nil
}

func (s *Sim) String() string {
	return fmt.Sprintf("sim{%s, %s}", s.d, s.clock)
}

// Clock implements nrz.Port.
func (s *Sim) Clock() physic.Frequency { return s.clock }

// Output implements nrz.Port.
func (s *Sim) Output(mask byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs |= mask
	return nil
}

// Level implements nrz.Port.
func (s *Sim) Level() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Stream implements nrz.Port. It fails if the samples are not a well formed
// pulse train on the output pins.
func (s *Sim) Stream(samples []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := nrz.Decode(samples, s.outputs, s.timing)
	if err != nil {
		return err
	}
	if len(samples) > 0 {
		s.level = samples[len(samples)-1]
	}
	s.last = b
	s.frames++
	return s.draw(b)
}

// Last returns the bytes carried by the last frame, after dimming.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

// Frames is the number of frames streamed.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close implements io.Closer.
func (s *Sim) Close() error {
	return s.d.Halt()
}

func (s *Sim) draw(b []byte) error {
	ch := len(s.order)
	n := len(b) / ch
	if n == 0 {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, n, 1))
	for i := 0; i < n; i++ {
		c := color.NRGBA{A: 255}
		for j, v := range b[i*ch : (i+1)*ch] {
			switch s.order[j] {
			case 'R':
				c.R = sat(c.R, v)
			case 'G':
				c.G = sat(c.G, v)
			case 'B':
				c.B = sat(c.B, v)
			case 'W':
				c.R, c.G, c.B = sat(c.R, v), sat(c.G, v), sat(c.B, v)
			}
		}
		img.SetNRGBA(i, 0, c)
	}
	return s.d.Draw(s.d.Bounds(), img, image.Point{})
}

func sat(a, b byte) byte {
	if s := int(a) + int(b); s < 255 {
		return byte(s)
	}
	return 255
}
