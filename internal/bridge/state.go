// Package bridge relays sensor readings published over MQTT to the HTTP
// ingestion API.
package bridge

import (
	"log/slog"
	"sync"
)

// State is the connection state of the bridge.
type State int

const (
	Disconnected State = iota
	Connecting
	Subscribed
	Processing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Processing:
		return "processing"
	}
	return "unknown"
}

// stateMachine records the current state and logs every transition.
type stateMachine struct {
	mu     sync.Mutex
	cur    State
	logger *slog.Logger
}

func (m *stateMachine) set(s State) {
	m.mu.Lock()
	prev := m.cur
	m.cur = s
	m.mu.Unlock()
	if prev == s {
		return
	}
	// per-message transitions are noisy
	if prev == Processing || s == Processing {
		m.logger.Debug("bridge state", "from", prev.String(), "to", s.String())
		return
	}
	m.logger.Info("bridge state", "from", prev.String(), "to", s.String())
}

func (m *stateMachine) get() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}
