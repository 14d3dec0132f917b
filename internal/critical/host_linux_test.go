//go:build linux && !tinygo

package critical

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestHostRestoresSchedulingPolicy(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before, err := unix.SchedGetAttr(0, 0)
	require.NoError(t, err)

	irq := Host()
	g := Enter(irq)
	inside, err := unix.SchedGetAttr(0, 0)
	require.NoError(t, err)
	if g.prev != 0 {
		assert.Equal(t, uint32(unix.SCHED_FIFO), inside.Policy)
		assert.Equal(t, uint32(fifoPriority), inside.Priority)
	} else {
		// No CAP_SYS_NICE: the section runs at normal priority.
		assert.Equal(t, before.Policy, inside.Policy)
	}
	g.Release()

	after, err := unix.SchedGetAttr(0, 0)
	require.NoError(t, err)
	assert.Equal(t, before.Policy, after.Policy)
	assert.Equal(t, before.Priority, after.Priority)
}
