package plot

import (
	"slices"
	"sync"

	"github.com/mfulz/plotgeist/dispatch"
	"github.com/mfulz/plotgeist/internal/logging"
	"go.uber.org/zap"
)

// Manager owns the plots of all configured targets.
type Manager struct {
	mu    sync.RWMutex
	plots map[string]*Plot
	log   *zap.SugaredLogger
}

func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{
		plots: make(map[string]*Plot),
		log:   logging.OrNop(log),
	}
}

// Attach creates a plot for every target and registers it on d. Targets that
// already have a plot are skipped.
func (m *Manager) Attach(d *dispatch.Dispatcher, targets ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, target := range targets {
		if _, ok := m.plots[target]; ok {
			m.log.Warnf("[plot] Target '%s' already attached", target)
			continue
		}
		p := New(target, m.log)
		m.plots[target] = p
		d.Register(target, p.Handle)
		m.log.Infof("[plot] Attached plot for '%s'", target)
	}
}

// Get returns the plot of target.
func (m *Manager) Get(target string) (*Plot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plots[target]
	return p, ok
}

// Targets returns the attached targets, sorted.
func (m *Manager) Targets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	targets := make([]string, 0, len(m.plots))
	for t := range m.plots {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	return targets
}

// States returns a snapshot of every plot, ordered by target.
func (m *Manager) States() []State {
	var states []State
	for _, t := range m.Targets() {
		if p, ok := m.Get(t); ok {
			states = append(states, p.State())
		}
	}
	return states
}
