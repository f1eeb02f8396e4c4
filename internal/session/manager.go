package session

import "sync"

// Task is a background task bound to one session.
type Task interface {
	Stop()
}

// TaskFactory creates the task to run while userID stays signed in.
type TaskFactory func(userID string) Task

// Manager starts a task on sign-in and stops it on sign-out, so a
// session-scoped worker (e.g. a usage snapshot refresher) never
// outlives its session.
type Manager struct {
	factory TaskFactory

	mu          sync.Mutex
	active      Task
	activeUser  string
	unsubscribe func()
}

// NewManager creates a manager and subscribes it to the publisher.
// Close releases the subscription.
func NewManager(p *Publisher, factory TaskFactory) *Manager {
	m := &Manager{factory: factory}
	m.unsubscribe = p.Subscribe(m.handle)
	return m
}

// Close unsubscribes and stops the active task, if any.
func (m *Manager) Close() {
	m.unsubscribe()

	m.mu.Lock()
	task := m.active
	m.active = nil
	m.activeUser = ""
	m.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}

func (m *Manager) handle(ev Event) {
	if ev.SignedIn {
		m.start(ev.UserID)
		return
	}
	m.stop(ev.UserID)
}

func (m *Manager) start(userID string) {
	m.mu.Lock()
	prev := m.active
	m.active = m.factory(userID)
	m.activeUser = userID
	m.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
}

// stop ends the task only if it still belongs to userID; a stale
// sign-out must not kill the next session's task.
func (m *Manager) stop(userID string) {
	m.mu.Lock()
	if m.activeUser != userID {
		m.mu.Unlock()
		return
	}
	task := m.active
	m.active = nil
	m.activeUser = ""
	m.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}
