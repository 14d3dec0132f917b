// Package modes registers the built-in effects.
package modes

import (
	"time"

	"github.com/coreman2200/arcastrip/internal/fx"
	"github.com/coreman2200/arcastrip/internal/fx/grad"
	"github.com/coreman2200/arcastrip/internal/fx/solid"
	"github.com/coreman2200/arcastrip/internal/fx/twinkle"
)

// Default is the mode a fresh install starts in.
const Default = "twinkle_fade_random"

// New returns a registry with every built-in effect. Mode numbers are stable:
// off=0, static=1, rainbow=2, twinkle_fade_random=3, blink=4.
func New() *fx.Registry {
	r := fx.NewRegistry()
	r.Register(solid.Off())
	r.Register(solid.New("static", nil))
	r.Register(grad.New("rainbow"))
	r.Register(twinkle.New(time.Now().UnixNano()))
	r.Register(solid.Blink{})
	return r
}
