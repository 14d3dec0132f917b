package grad

import (
	"math"

	"github.com/coreman2200/arcastrip/internal/fx"
)

// Rainbow spreads the hue circle over the strip and rotates it over time.
// Params:
//   - "Cycles" (float, default 1): hue turns along the strip
type Rainbow struct {
	name string
}

func New(name string) *Rainbow { return &Rainbow{name: name} }

func (g *Rainbow) Name() string { return g.name }

func (g *Rainbow) Render(dst []fx.Color, t float64, u *fx.Uniforms) {
	cycles := 1.0
	speed := 1.0
	if u != nil {
		if v, ok := u.Params["Cycles"]; ok && v > 0 {
			cycles = v
		}
		if u.Speed > 0 {
			speed = u.Speed
		}
	}
	n := len(dst)
	for i := range dst {
		pos := float64(i) / float64(max(1, n))
		h := math.Mod(pos*cycles+t*0.2*speed, 1.0)
		dst[i] = fx.HSV(h, 1, 1)
	}
}
