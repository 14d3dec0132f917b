// Package twinkle lights random pixels in random colors and lets them fade.
package twinkle

import (
	"math"
	"math/rand"

	"github.com/coreman2200/arcastrip/internal/fx"
)

const (
	// fadeRate is the exponential decay per second at speed 1.
	fadeRate = 3.0
	// sparkRate is the number of new sparks per pixel per second at speed 1.
	sparkRate = 0.5
)

type Twinkle struct {
	rnd   *rand.Rand
	level []fx.Color
	last  float64
}

// New returns the effect with its own random source.
func New(seed int64) *Twinkle {
	return &Twinkle{rnd: rand.New(rand.NewSource(seed)), last: -1}
}

func (*Twinkle) Name() string { return "twinkle_fade_random" }

func (tw *Twinkle) Render(dst []fx.Color, t float64, u *fx.Uniforms) {
	speed := 1.0
	if u != nil && u.Speed > 0 {
		speed = u.Speed
	}
	if len(tw.level) != len(dst) || t < tw.last {
		tw.level = make([]fx.Color, len(dst))
		tw.last = -1
	}
	dt := 0.0
	if tw.last >= 0 {
		dt = t - tw.last
	}
	tw.last = t

	k := float32(math.Exp(-dt * speed * fadeRate))
	for i := range tw.level {
		tw.level[i].R *= k
		tw.level[i].G *= k
		tw.level[i].B *= k
	}

	if n := len(tw.level); n > 0 {
		sparks := dt * speed * sparkRate * float64(n)
		whole, frac := math.Modf(sparks)
		count := int(whole)
		if tw.rnd.Float64() < frac {
			count++
		}
		for ; count > 0; count-- {
			tw.level[tw.rnd.Intn(n)] = fx.HSV(tw.rnd.Float64(), 1, 1)
		}
	}
	copy(dst, tw.level)
}
