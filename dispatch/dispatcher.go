// Package dispatch provides the registry that routes decoded plot commands to
// the handlers subscribed to their target, and the polling tick that drains
// the mailbox on the consumer side.
package dispatch

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/internal/mailbox"
	"github.com/mfulz/plotgeist/protocol"
	"go.uber.org/zap"
)

// HandlerFunc receives one command addressed to the target it was
// registered for.
type HandlerFunc func(cmd *protocol.Command)

// Dispatcher maps target names to ordered lists of handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	log      *zap.SugaredLogger
}

// New creates a new Dispatcher. A nil logger disables logging.
func New(log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		log:      logging.OrNop(log),
	}
}

// Register appends handler to the handlers of target. Handlers run in
// registration order.
func (d *Dispatcher) Register(target string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[target] = append(d.handlers[target], handler)
	d.log.Debugw("[dispatch] handler registered", "target", target, "handlers", len(d.handlers[target]))
}

// Targets returns the registered target names, sorted.
func (d *Dispatcher) Targets() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	targets := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	return targets
}

// Dispatch runs every handler registered for cmd's target. It reports false
// when no handler is registered; the command is dropped in that case.
func (d *Dispatcher) Dispatch(cmd *protocol.Command) bool {
	d.mu.RLock()
	handlers := d.handlers[cmd.Target()]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debugw("[dispatch] no handler for target, dropping command",
			"target", cmd.Target(), "kind", cmd.Kind().String())
		return false
	}

	for i, h := range handlers {
		d.invoke(i, h, cmd)
	}
	return true
}

// invoke runs one handler; a panic is logged and does not stop the others.
func (d *Dispatcher) invoke(i int, h HandlerFunc, cmd *protocol.Command) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("[dispatch] handler panicked",
				"target", cmd.Target(), "handler", i, "panic", r)
		}
	}()
	h(cmd)
}

// Poll is one consumer tick: if the mailbox holds a new command it is taken
// and dispatched. It reports whether a command was taken.
func (d *Dispatcher) Poll(mb *mailbox.Mailbox) bool {
	cmd, ok := mb.Take()
	if !ok {
		return false
	}
	d.log.Desugar().Debug("[dispatch] new command", cmd.Fields()...)
	d.Dispatch(cmd)
	return true
}

// Run polls mb every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, mb *mailbox.Mailbox, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll(mb)
		}
	}
}
