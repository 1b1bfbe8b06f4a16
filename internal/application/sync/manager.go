package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/vanvan1998/todoApp/internal/application/reminder"
)

// Manager owns one Session (and its reminder scheduler) per signed-in
// partition key. Sessions are created on first use and torn down on
// sign-out, never left behind as ambient state.
type Manager struct {
	store        Store
	watcher      Watcher
	alerter      reminder.Alerter
	tickInterval time.Duration

	mu       gosync.Mutex
	sessions map[string]*handle
}

type handle struct {
	session   *Session
	scheduler *reminder.Scheduler
}

// NewManager wires the collection adapter, change watcher and alert channel.
// tickInterval sets the reminder scan period; zero means the default.
func NewManager(store Store, watcher Watcher, alerter reminder.Alerter, tickInterval time.Duration) *Manager {
	if tickInterval <= 0 {
		tickInterval = reminder.DefaultInterval
	}
	return &Manager{
		store:        store,
		watcher:      watcher,
		alerter:      alerter,
		tickInterval: tickInterval,
		sessions:     make(map[string]*handle),
	}
}

// Open returns the live session for userID, creating one (initial snapshot,
// change subscription, reminder scheduler) if none exists.
func (m *Manager) Open(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.sessions[userID]; ok {
		return h.session, nil
	}

	// The session outlives the call that opened it (usually a single HTTP
	// request), so its watcher must not inherit the caller's cancellation.
	sess := newSession(userID, m.store)
	if err := sess.start(context.WithoutCancel(ctx), m.watcher); err != nil {
		return nil, fmt.Errorf("open session for %s: %w", userID, err)
	}

	sched := reminder.NewScheduler(sess, m.store, m.alerter, m.tickInterval)
	sched.Start()

	m.sessions[userID] = &handle{session: sess, scheduler: sched}
	return sess, nil
}

// Close tears down the session for userID: the scheduler stops before the
// subscription so no alert fires against a cleared item set.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	h, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	h.scheduler.Stop()
	h.session.close()
}

// CloseAll tears down every live session. Called on process shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	handles := make([]*handle, 0, len(m.sessions))
	for _, h := range m.sessions {
		handles = append(handles, h)
	}
	m.sessions = make(map[string]*handle)
	m.mu.Unlock()

	for _, h := range handles {
		h.scheduler.Stop()
		h.session.close()
	}
}
