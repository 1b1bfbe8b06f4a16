// Package sync implements the realtime list synchronization core: per-user
// sessions that mirror one partition of the remote todo collection, derive
// the displayed (filtered + sorted) list, and fan view updates out to
// subscribers.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	gosync "sync"
	"time"

	"github.com/vanvan1998/todoApp/internal/application/layout"
	"github.com/vanvan1998/todoApp/internal/domain"
	"github.com/vanvan1998/todoApp/internal/pkg/id"
)

// Store is the remote collection adapter contract the sync core writes
// through. All mutations are write-through: local state changes only when
// the change comes back via the watcher.
type Store interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, todoID string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	Overwrite(ctx context.Context, todoID string, req domain.UpdateTodoRequest) error
	SetCompleted(ctx context.Context, todoID string, completed bool) error
	ClearNotification(ctx context.Context, todoID string) error
	Delete(ctx context.Context, todoID string) error
}

// Watcher is the push-based change subscription: Watch blocks until ctx is
// cancelled, invoking onChange whenever the user's partition changed.
type Watcher interface {
	Watch(ctx context.Context, userID string, onChange func()) error
}

// View is the derived, disposable presentation state: the displayed list
// plus the inputs that produced it. It owns no identity and is recomputed
// wholesale on every change.
type View struct {
	Items   []domain.Todo   `json:"items"`
	Search  string          `json:"search"`
	Sort    domain.SortMode `json:"sort"`
	Compact bool            `json:"compact"`
}

// Session owns the authoritative item set for one partition key. The set is
// replaced wholesale from each snapshot — never patched incrementally — so
// local state can diverge from the store only by write latency.
type Session struct {
	userID string
	store  Store
	layout *layout.Signal

	mu        gosync.Mutex
	all       []domain.Todo
	displayed []domain.Todo
	search    string
	sortMode  domain.SortMode
	subs      map[chan View]struct{}
	closed    bool

	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

func newSession(userID string, store Store) *Session {
	return &Session{
		userID:   userID,
		store:    store,
		layout:   layout.NewSignal(),
		sortMode: domain.SortNone,
		subs:     make(map[chan View]struct{}),
	}
}

// start performs the initial snapshot read, then runs the watcher until the
// session is closed. Every watcher notification triggers a full re-read of
// the partition.
func (s *Session) start(ctx context.Context, watcher Watcher) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.refresh(ctx); err != nil {
		s.cancel()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := watcher.Watch(ctx, s.userID, func() {
			if err := s.refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("snapshot refresh failed", "user_id", s.userID, "err", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("change watcher stopped", "user_id", s.userID, "err", err)
		}
	}()
	return nil
}

func (s *Session) refresh(ctx context.Context) error {
	items, err := s.store.ListByUser(ctx, s.userID)
	if err != nil {
		return err
	}
	s.apply(items)
	return nil
}

// apply replaces the authoritative set with a snapshot and recomputes the
// displayed list. Dropped on the floor after close so a late callback can
// never resurrect state.
func (s *Session) apply(items []domain.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.all = items
	s.recomputeLocked()
	s.publishLocked()
}

// recomputeLocked derives displayed = sort(filter(all, search), mode).
// Pure over its inputs: identical state yields an identical list.
func (s *Session) recomputeLocked() {
	s.displayed = Sort(Filter(s.all, s.search), s.sortMode)
}

func (s *Session) publishLocked() {
	view := s.viewLocked()
	for ch := range s.subs {
		select {
		case ch <- view:
		default:
			// Subscriber buffer full; it will catch up on the next update.
		}
	}
}

func (s *Session) viewLocked() View {
	items := make([]domain.Todo, len(s.displayed))
	copy(items, s.displayed)
	return View{Items: items, Search: s.search, Sort: s.sortMode, Compact: s.layout.Compact()}
}

// Add validates and writes a new todo through to the store. The caller does
// not receive the item back — it arrives via the next snapshot.
func (s *Session) Add(ctx context.Context, req domain.CreateTodoRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", domain.ErrBadRequest)
	}
	t := &domain.Todo{
		TodoID:       id.New(),
		UserID:       s.userID,
		Title:        req.Title,
		Detail:       req.Detail,
		Completed:    false,
		StartDate:    req.StartDate,
		StartTime:    req.StartTime,
		Notification: req.Notification,
		CreatedAt:    time.Now().Format(domain.CreatedAtLayout),
	}
	return s.store.Put(ctx, t)
}

// Update overwrites every editable field of an owned todo. This is a
// full-field overwrite contract: optional fields left empty in req are
// cleared on the record.
func (s *Session) Update(ctx context.Context, todoID string, req domain.UpdateTodoRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", domain.ErrBadRequest)
	}
	if _, err := s.owned(ctx, todoID); err != nil {
		return err
	}
	return s.store.Overwrite(ctx, todoID, req)
}

// ToggleComplete flips the completed flag write-through. Two in-flight
// toggles on the same id are not guarded against; the store's last write
// wins.
func (s *Session) ToggleComplete(ctx context.Context, todoID string) error {
	t, err := s.owned(ctx, todoID)
	if err != nil {
		return err
	}
	return s.store.SetCompleted(ctx, todoID, !t.Completed)
}

func (s *Session) Remove(ctx context.Context, todoID string) error {
	if _, err := s.owned(ctx, todoID); err != nil {
		return err
	}
	return s.store.Delete(ctx, todoID)
}

func (s *Session) owned(ctx context.Context, todoID string) (*domain.Todo, error) {
	t, err := s.store.Get(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if t.UserID != s.userID {
		return nil, fmt.Errorf("todo belongs to another user: %w", domain.ErrForbidden)
	}
	return t, nil
}

// SetSearch recomputes the displayed list against the new query. Blank input
// short-circuits to the sorted authoritative set.
func (s *Session) SetSearch(query string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = query
	s.recomputeLocked()
	s.publishLocked()
	return s.viewLocked()
}

// SetSort changes the sort mode; the mode persists and is re-applied to
// every future snapshot.
func (s *Session) SetSort(mode domain.SortMode) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = mode
	s.recomputeLocked()
	s.publishLocked()
	return s.viewLocked()
}

// SetViewportWidth feeds the layout signal; a compact-mode flip republishes
// the view so subscribers resize.
func (s *Session) SetViewportWidth(width int) {
	if !s.layout.SetWidth(width) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

// Displayed returns the current derived view.
func (s *Session) Displayed() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Current returns a copy of the authoritative item set. This is the read
// surface the reminder scheduler scans on every tick.
func (s *Session) Current() []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Todo, len(s.all))
	copy(out, s.all)
	return out
}

// Subscribe registers a view-update listener. The returned cancel func must
// be called when the listener goes away.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
}

// close tears the session down: the watcher context is cancelled first, then
// the session is marked closed so an in-flight snapshot callback cannot
// mutate state afterwards.
func (s *Session) close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan View]struct{})
	s.mu.Unlock()
	s.wg.Wait()
}
