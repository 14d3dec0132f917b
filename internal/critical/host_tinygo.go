//go:build tinygo

package critical

import "runtime/interrupt"

type mcu struct{}

// Host returns the Interrupts implementation for this platform.
func Host() Interrupts {
	return mcu{}
}

func (mcu) Disable() State {
	return State(interrupt.Disable())
}

func (mcu) Restore(s State) {
	interrupt.Restore(interrupt.State(s))
}
