// Package mailbox hands the most recently decoded command from the network
// goroutine to the polling consumer.
//
// It holds a single slot. A new arrival overwrites whatever has not been
// consumed yet, so the consumer always sees the latest state and never a
// backlog.
package mailbox

import (
	"sync"

	"github.com/mfulz/plotgeist/protocol"
)

// Mailbox is a single-slot, lock-guarded command handoff.
type Mailbox struct {
	mu      sync.Mutex
	current *protocol.Command
	pending bool
}

// New returns an empty Mailbox holding a blank command.
func New() *Mailbox {
	return &Mailbox{current: protocol.NewCommand()}
}

// Publish stores cmd as the current command and marks it pending. The
// mailbox takes ownership of cmd.
func (m *Mailbox) Publish(cmd *protocol.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = cmd
	m.pending = true
}

// IsPending reports whether a command arrived since the flag was last cleared.
func (m *Mailbox) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Snapshot returns a deep copy of the current command. The pending flag is
// left untouched.
func (m *Mailbox) Snapshot() *protocol.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// SetPending sets the pending flag.
func (m *Mailbox) SetPending(pending bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = pending
}

// Take returns a copy of the pending command and clears the flag in one
// critical section. It returns false when nothing is pending.
func (m *Mailbox) Take() (*protocol.Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return nil, false
	}
	m.pending = false
	return m.current.Clone(), true
}
