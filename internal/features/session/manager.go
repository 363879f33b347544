package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go-dashboard/internal/features/events"
	"go-dashboard/pkg/objref"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("session not found")

// Manager keeps the open sessions of a process. Sessions are independent:
// each has its own state, inbox and query cache.
type Manager struct {
	template Options
	logger   *zap.Logger

	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners []func(events.Event)
}

// NewManager opens sessions with template, overriding only the dashboard and id.
func NewManager(template Options) *Manager {
	logger := template.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		template: template,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Observe registers fn for the events of every session opened afterwards.
func (m *Manager) Observe(fn func(events.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) Open(ctx context.Context, dashboard objref.ObjRef) (*Session, error) {
	opts := m.template
	opts.Dashboard = dashboard
	opts.ID = ""

	m.mu.RLock()
	listeners := append([]func(events.Event){opts.OnEvent}, m.listeners...)
	m.mu.RUnlock()
	opts.OnEvent = func(evt events.Event) {
		for _, fn := range listeners {
			if fn != nil {
				fn(evt)
			}
		}
	}

	s, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Dispose()
	return nil
}

// CloseAll disposes every session and waits for them to stop or ctx to end.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Dispose()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.logger.Info("All sessions closed", zap.Int("count", len(sessions)))
	return nil
}
