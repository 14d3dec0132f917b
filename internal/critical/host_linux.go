//go:build linux && !tinygo

package critical

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// fifoPriority is the SCHED_FIFO priority used while streaming. It stays below
// the kernel's threaded IRQ handlers (50) so SPI completion is not starved.
const fifoPriority = 49

type realtime struct {
	prev *unix.SchedAttr
	warn sync.Once
}

// Host returns the Interrupts implementation for this platform.
func Host() Interrupts {
	return &realtime{}
}

// Disable pins the calling goroutine to its thread and raises the thread to
// SCHED_FIFO. The returned state is 1 when the policy was changed and must be
// put back.
func (r *realtime) Disable() State {
	runtime.LockOSThread()
	prev, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		r.degraded(err)
		return 0
	}
	attr := *prev
	attr.Policy = unix.SCHED_FIFO
	attr.Priority = fifoPriority
	attr.Nice = 0
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		r.degraded(err)
		return 0
	}
	r.prev = prev
	return 1
}

func (r *realtime) Restore(s State) {
	if s != 0 && r.prev != nil {
		if err := unix.SchedSetAttr(0, r.prev, 0); err != nil {
			log.Warn().Err(err).Msg("critical: restoring scheduling policy failed")
		}
		r.prev = nil
	}
	runtime.UnlockOSThread()
}

func (r *realtime) degraded(err error) {
	r.warn.Do(func() {
		log.Warn().Err(err).Msg("critical: realtime scheduling unavailable, streaming at normal priority")
	})
}
