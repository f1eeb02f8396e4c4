// Package session tracks the signed-in user and runs per-session
// background tasks tied to the sign-in lifecycle.
package session

import "sync"

// Event describes a session state change.
type Event struct {
	UserID   string
	SignedIn bool
}

// Publisher broadcasts sign-in and sign-out events to subscribers and
// keeps the current session. Safe for concurrent use.
type Publisher struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(Event)
	nextID  int
}

// NewPublisher creates a publisher with no active session.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int]func(Event))}
}

// Subscribe registers a listener for session events and returns its
// unsubscribe func. Listeners are invoked synchronously, in publish
// order, outside the publisher lock.
func (p *Publisher) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignIn records userID as the active session and notifies subscribers.
// Signing in over an existing session first publishes a sign-out for
// the previous user.
func (p *Publisher) SignIn(userID string) {
	if userID == "" {
		return
	}

	p.mu.Lock()
	prev := p.current
	p.current = userID
	listeners := p.listeners()
	p.mu.Unlock()

	if prev != "" && prev != userID {
		publish(listeners, Event{UserID: prev, SignedIn: false})
	}
	publish(listeners, Event{UserID: userID, SignedIn: true})
}

// SignOut clears the active session and notifies subscribers. A no-op
// when nobody is signed in.
func (p *Publisher) SignOut() {
	p.mu.Lock()
	prev := p.current
	p.current = ""
	listeners := p.listeners()
	p.mu.Unlock()

	if prev == "" {
		return
	}
	publish(listeners, Event{UserID: prev, SignedIn: false})
}

// Current returns the signed-in user id, if any.
func (p *Publisher) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != ""
}

// listeners snapshots subscribers under the lock so publishing can run
// without holding it.
func (p *Publisher) listeners() []func(Event) {
	out := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

func publish(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
