// Package fx holds the effects that animate a strip.
//
// Effects render linear colors in [0, 1] for every pixel of the strip. The
// caller scales them by the global brightness and converts them to bytes; the
// dimming curve is applied later by the transmitter.
package fx

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

type Color struct{ R, G, B float32 }

// Uniforms are the parameters shared by all effects.
type Uniforms struct {
	Color Color
	// Speed scales animation time. 1 is the nominal rate.
	Speed  float64
	Params map[string]float64
}

type Effect interface {
	Name() string
	// Render fills dst for time t, in seconds since the effect started.
	Render(dst []Color, t float64, u *Uniforms)
}

// Registry maps mode names to effects. Modes are numbered in registration
// order.
type Registry struct {
	m     map[string]Effect
	order []string
}

func NewRegistry() *Registry { return &Registry{m: map[string]Effect{}} }

func (r *Registry) Register(e Effect) {
	if e == nil {
		return
	}
	if _, ok := r.m[e.Name()]; !ok {
		r.order = append(r.order, e.Name())
	}
	r.m[e.Name()] = e
}

func (r *Registry) Get(name string) (Effect, bool) { e, ok := r.m[name]; return e, ok }

// List returns the mode names, index i being mode number i.
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// Lookup resolves a mode given as a name, a number or a numeric string.
func (r *Registry) Lookup(mode any) (Effect, error) {
	switch v := mode.(type) {
	case string:
		if e, ok := r.m[strings.ToLower(v)]; ok {
			return e, nil
		}
		if i, err := strconv.Atoi(v); err == nil {
			return r.index(i)
		}
		return nil, fmt.Errorf("fx: unknown mode %q", v)
	case float64:
		if v != float64(int(v)) {
			return nil, fmt.Errorf("fx: mode %v is not an integer", v)
		}
		return r.index(int(v))
	case int:
		return r.index(v)
	default:
		return nil, fmt.Errorf("fx: invalid mode %v", mode)
	}
}

func (r *Registry) index(i int) (Effect, error) {
	if i < 0 || i >= len(r.order) {
		return nil, fmt.Errorf("fx: mode %d out of range [0, %d)", i, len(r.order))
	}
	return r.m[r.order[i]], nil
}

// Scale multiplies every color by brightness, clamped to [0, 1].
func Scale(buf []Color, brightness float64) {
	k := float32(clamp(brightness))
	for i := range buf {
		buf[i] = Color{
			R: float32(clamp(float64(buf[i].R * k))),
			G: float32(clamp(float64(buf[i].G * k))),
			B: float32(clamp(float64(buf[i].B * k))),
		}
	}
}

// Fill writes buf into row 0 of img as opaque pixels.
func Fill(img *image.NRGBA, buf []Color) {
	for i, c := range buf {
		if i >= img.Rect.Dx() {
			return
		}
		img.SetNRGBA(img.Rect.Min.X+i, img.Rect.Min.Y, color.NRGBA{
			R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255,
		})
	}
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("fx: bad color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("fx: bad color %q: %w", s, err)
	}
	return Color{
		R: float32(v>>16&0xFF) / 255,
		G: float32(v>>8&0xFF) / 255,
		B: float32(v&0xFF) / 255,
	}, nil
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

// HSV converts hue, saturation and value in [0, 1] to a Color.
func HSV(h, s, v float64) Color {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return Color{R: float32(r), G: float32(g), B: float32(b)}
}

func to8(v float32) byte {
	return byte(clamp(float64(v))*255 + 0.5)
}

func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
