// Package monitoring tracks tick health for the health endpoint.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

type Monitor struct {
	mu           sync.Mutex
	lastTickAt   time.Time
	lastTickOK   bool
	lastEnqueued int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordTick notes the outcome of one dispatcher tick.
func (m *Monitor) RecordTick(enqueued int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTickAt = time.Now()
	m.lastTickOK = err == nil
	m.lastEnqueued = enqueued
}

// IsHealthy reports whether the last tick succeeded. No ticks yet counts as
// healthy so a freshly started process passes its probe.
func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastTickAt.IsZero() {
		return true
	}
	return m.lastTickOK
}

func (m *Monitor) StatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastTickAt.IsZero() {
		return "no ticks yet"
	}
	state := "ok"
	if !m.lastTickOK {
		state = "failed"
	}
	return fmt.Sprintf("last tick %s at %s, %d jobs enqueued",
		state, m.lastTickAt.Format("Jan 2 15:04"), m.lastEnqueued)
}
