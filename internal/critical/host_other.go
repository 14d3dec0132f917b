//go:build !linux && !tinygo

package critical

import "runtime"

type pinned struct{}

// Host returns the Interrupts implementation for this platform. Without a
// realtime scheduler the section only pins the goroutine to its thread.
func Host() Interrupts {
	return pinned{}
}

func (pinned) Disable() State {
	runtime.LockOSThread()
	return 0
}

func (pinned) Restore(State) {
	runtime.UnlockOSThread()
}
