// Package tests holds the bring-up patterns used to check wiring and
// channel order on a new strip.
package tests

import "github.com/coreman2200/arcastrip/internal/fx"

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	Fill       Kind = "white_fill"
)

// Kinds lists the runnable patterns.
var Kinds = []Kind{IndexSweep, RGBTest, Fill}

type Plan struct {
	Kind Kind
	// Hold is the number of frames each step stays up. 0 means 1.
	Hold int
}

type Runner struct {
	plan  Plan
	step  int
	frame int
}

func NewRunner(plan Plan) *Runner {
	if plan.Hold <= 0 {
		plan.Hold = 1
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Valid reports whether k names a pattern.
func Valid(k Kind) bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Step fills dst with the next frame; returns false when complete.
func (r *Runner) Step(dst []fx.Color) bool {
	n := len(dst)
	for i := range dst {
		dst[i] = fx.Color{}
	}

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		dst[r.step] = fx.Color{R: 1, G: 1, B: 1}
	case RGBTest:
		if r.step >= 3 {
			return false
		}
		c := [3]fx.Color{{R: 1}, {G: 1}, {B: 1}}[r.step]
		for i := range dst {
			dst[i] = c
		}
	case Fill:
		if r.step >= 1 {
			return false
		}
		for i := range dst {
			dst[i] = fx.Color{R: 1, G: 1, B: 1}
		}
	default:
		return false
	}
	r.frame++
	if r.frame >= r.plan.Hold {
		r.frame = 0
		r.step++
	}
	return true
}
