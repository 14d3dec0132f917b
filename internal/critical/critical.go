// Package critical provides the scoped "timing critical" section the NRZ
// transmitter runs in.
//
// On a microcontroller entering the section disables interrupts and leaving it
// restores whatever interrupt-enable state was in effect before. On a Linux
// host the closest equivalent is used: the goroutine is pinned to its OS thread
// and that thread is moved to SCHED_FIFO for the duration.
package critical

// State is the interrupt-enable state captured when entering a section. Its
// meaning is private to the Interrupts implementation that produced it.
type State uintptr

// Interrupts disables and restores the host's interrupt mechanism.
type Interrupts interface {
	// Disable masks interrupts and returns the state in effect before.
	Disable() State
	// Restore puts back a state returned by Disable.
	Restore(State)
}

// None is an Interrupts that does nothing. Useful when the pulse generator is a
// peripheral that keeps its own timing.
var None Interrupts = none{}

type none struct{}

func (none) Disable() State { return 0 }
func (none) Restore(State)  {}

// Guard is an entered critical section. Release must be called exactly once,
// usually deferred right after Enter.
type Guard struct {
	irq      Interrupts
	prev     State
	released bool
}

// Enter disables interrupts through irq and returns the guard holding the
// previous state. A nil irq behaves like None.
func Enter(irq Interrupts) *Guard {
	if irq == nil {
		irq = None
	}
	return &Guard{irq: irq, prev: irq.Disable()}
}

// Release restores the state captured by Enter. Calling it again is a no-op.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.irq.Restore(g.prev)
}
