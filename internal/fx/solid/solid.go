package solid

import (
	"math"

	"github.com/coreman2200/arcastrip/internal/fx"
)

// Solid fills the strip with one color. With a nil color it uses the
// uniform color.
type Solid struct {
	name string
	c    *fx.Color
}

func New(name string, c *fx.Color) *Solid { return &Solid{name: name, c: c} }

// Off is a Solid that is always black.
func Off() *Solid { return New("off", &fx.Color{}) }

func (s *Solid) Name() string { return s.name }

func (s *Solid) Render(dst []fx.Color, _ float64, u *fx.Uniforms) {
	c := fx.Color{}
	switch {
	case s.c != nil:
		c = *s.c
	case u != nil:
		c = u.Color
	}
	for i := range dst {
		dst[i] = c
	}
}

// Blink alternates between the uniform color and black, one full cycle per
// second at speed 1.
type Blink struct{}

func (Blink) Name() string { return "blink" }

func (Blink) Render(dst []fx.Color, t float64, u *fx.Uniforms) {
	c := fx.Color{}
	speed := 1.0
	if u != nil {
		c = u.Color
		if u.Speed > 0 {
			speed = u.Speed
		}
	}
	if _, frac := math.Modf(t * speed); frac >= 0.5 {
		c = fx.Color{}
	}
	for i := range dst {
		dst[i] = c
	}
}
