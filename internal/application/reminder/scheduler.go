// Package reminder implements the periodic due-reminder scan: every tick it
// inspects the authoritative item set and alerts at most one due item,
// clearing its notification flag write-through.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vanvan1998/todoApp/internal/domain"
)

// DefaultInterval is the scan tick period.
const DefaultInterval = 5 * time.Second

// dueWindow is the one-sided due bound: an item qualifies when its start
// instant is less than this far in the future. Already-past instants also
// qualify — overdue reminders stay eligible until alerted.
const dueWindow = 10 * time.Minute

// Source exposes the authoritative item set of one partition.
type Source interface {
	Current() []domain.Todo
}

// Store is the write-through surface for consuming a reminder.
type Store interface {
	ClearNotification(ctx context.Context, todoID string) error
}

// Alerter delivers alerts after an idempotent permission check.
type Alerter interface {
	RequestPermission(ctx context.Context) (bool, error)
	Deliver(ctx context.Context, message string) error
}

// Scheduler runs the tick loop for one session. Its lifetime is bound to the
// session's subscription: Stop must be called on teardown so no alert fires
// against stale state.
type Scheduler struct {
	source   Source
	store    Store
	alerter  Alerter
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(source Source, store Store, alerter Alerter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{source: source, store: store, alerter: alerter, interval: interval}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(ctx, now)
			}
		}
	}()
}

// Stop cancels the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// tick alerts at most one due item. Permission denial is an outcome, not an
// error: the flag stays set and the item is retried next tick.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	t, ok := firstDue(s.source.Current(), now)
	if !ok {
		return
	}

	granted, err := s.alerter.RequestPermission(ctx)
	if err != nil {
		slog.Warn("alert permission check failed", "todo_id", t.TodoID, "err", err)
		return
	}
	if !granted {
		return
	}

	if err := s.alerter.Deliver(ctx, AlertMessage(t)); err != nil {
		slog.Warn("alert delivery failed", "todo_id", t.TodoID, "err", err)
		return
	}
	if err := s.store.ClearNotification(ctx, t.TodoID); err != nil {
		slog.Warn("could not clear notification flag", "todo_id", t.TodoID, "err", err)
	}
}

// firstDue returns the first item in set iteration order still owing an
// alert whose start instant is inside the due window.
func firstDue(items []domain.Todo, now time.Time) (domain.Todo, bool) {
	for _, t := range items {
		if !t.Notification {
			continue
		}
		inst, ok := t.StartInstant()
		if !ok {
			continue
		}
		if inst.Sub(now) < dueWindow {
			return t, true
		}
	}
	return domain.Todo{}, false
}

// AlertMessage formats the delivered alert text.
func AlertMessage(t domain.Todo) string {
	return fmt.Sprintf("%s starts at %s %s", t.Title, t.StartDate, t.StartTime)
}
