package mailbox

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mfulz/plotgeist/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func command(target string, x ...float32) *protocol.Command {
	cmd := protocol.NewCommand()
	cmd.SetTarget(target)
	cmd.SetKind(protocol.KindPoints)
	cmd.SetFloatVector("x", x)
	return cmd
}

func TestEmptyMailbox(t *testing.T) {
	mb := New()
	assert.False(t, mb.IsPending())

	_, ok := mb.Take()
	assert.False(t, ok)
	assert.Equal(t, protocol.DefaultTarget, mb.Snapshot().Target())
}

func TestPublishThenTake(t *testing.T) {
	mb := New()
	mb.Publish(command("Plot1", 1, 2, 3))
	require.True(t, mb.IsPending())

	got, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, "Plot1", got.Target())
	assert.False(t, mb.IsPending())

	_, ok = mb.Take()
	assert.False(t, ok, "a command is delivered at most once")
}

func TestNewestArrivalWins(t *testing.T) {
	mb := New()
	mb.Publish(command("Plot1", 1))
	mb.Publish(command("Plot2", 2))

	got, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, "Plot2", got.Target())
	_, ok = mb.Take()
	assert.False(t, ok)
}

func TestSnapshotLeavesFlagAndIsIndependent(t *testing.T) {
	mb := New()
	mb.Publish(command("Plot1", 1, 2))

	snap := mb.Snapshot()
	assert.True(t, mb.IsPending())

	x, _ := snap.FloatVector("x")
	x[0] = 42
	again := mb.Snapshot()
	ax, _ := again.FloatVector("x")
	assert.Equal(t, []float32{1, 2}, ax)

	mb.SetPending(false)
	assert.False(t, mb.IsPending())
}

func TestConcurrentPublishAndTake(t *testing.T) {
	mb := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			mb.Publish(command(fmt.Sprintf("Plot%d", i), float32(i)))
		}
	}()

	seen := 0
	for i := 0; i < 500; i++ {
		if cmd, ok := mb.Take(); ok {
			require.Equal(t, 1, cmd.FloatVectorLen("x"))
			seen++
		}
	}
	wg.Wait()

	if cmd, ok := mb.Take(); ok {
		assert.Equal(t, "Plot499", cmd.Target())
		seen++
	}
	assert.LessOrEqual(t, seen, 500)
}
