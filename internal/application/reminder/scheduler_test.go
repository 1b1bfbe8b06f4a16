package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vanvan1998/todoApp/internal/domain"
)

// --- mocks ---

type sliceSource struct{ items []domain.Todo }

func (s *sliceSource) Current() []domain.Todo { return s.items }

type mockStore struct{ mock.Mock }

func (m *mockStore) ClearNotification(ctx context.Context, todoID string) error {
	return m.Called(ctx, todoID).Error(0)
}

type mockAlerter struct{ mock.Mock }

func (m *mockAlerter) RequestPermission(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *mockAlerter) Deliver(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

// --- helpers ---

func dueTodo(todoID, title string, startIn time.Duration) domain.Todo {
	inst := time.Now().Add(startIn)
	return domain.Todo{
		TodoID:       todoID,
		Title:        title,
		Notification: true,
		StartDate:    inst.Format(domain.StartDateLayout),
		StartTime:    inst.Format(domain.StartTimeLayout),
		CreatedAt:    time.Now().Format(domain.CreatedAtLayout),
	}
}

// --- tick tests ---

func TestTick_NoDueItems_DoesNothing(t *testing.T) {
	source := &sliceSource{items: []domain.Todo{
		dueTodo("t1", "Far away", 30*time.Minute),
		{TodoID: "t2", Title: "No reminder", Notification: false},
	}}
	store := &mockStore{}
	alerter := &mockAlerter{}

	s := NewScheduler(source, store, alerter, DefaultInterval)
	s.tick(context.Background(), time.Now())

	alerter.AssertNotCalled(t, "RequestPermission", mock.Anything)
	alerter.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ClearNotification", mock.Anything, mock.Anything)
}

func TestTick_SingleFirePerTick(t *testing.T) {
	// Both items are due; only the first in iteration order may be alerted.
	first := dueTodo("t1", "Pay rent", 5*time.Minute)
	second := dueTodo("t2", "Walk dog", 5*time.Minute)
	source := &sliceSource{items: []domain.Todo{first, second}}

	store := &mockStore{}
	store.On("ClearNotification", mock.Anything, "t1").Return(nil)
	alerter := &mockAlerter{}
	alerter.On("RequestPermission", mock.Anything).Return(true, nil)
	alerter.On("Deliver", mock.Anything, AlertMessage(first)).Return(nil)

	s := NewScheduler(source, store, alerter, DefaultInterval)
	s.tick(context.Background(), time.Now())

	alerter.AssertNumberOfCalls(t, "Deliver", 1)
	store.AssertCalled(t, "ClearNotification", mock.Anything, "t1")
	store.AssertNotCalled(t, "ClearNotification", mock.Anything, "t2")
}

func TestTick_OverdueStaysEligible(t *testing.T) {
	overdue := dueTodo("t1", "Dentist", -2*time.Hour)
	source := &sliceSource{items: []domain.Todo{overdue}}

	store := &mockStore{}
	store.On("ClearNotification", mock.Anything, "t1").Return(nil)
	alerter := &mockAlerter{}
	alerter.On("RequestPermission", mock.Anything).Return(true, nil)
	alerter.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	s := NewScheduler(source, store, alerter, DefaultInterval)
	s.tick(context.Background(), time.Now())

	alerter.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestTick_PermissionDenied_KeepsFlag(t *testing.T) {
	source := &sliceSource{items: []domain.Todo{dueTodo("t1", "Pay rent", 5*time.Minute)}}
	store := &mockStore{}
	alerter := &mockAlerter{}
	alerter.On("RequestPermission", mock.Anything).Return(false, nil)

	s := NewScheduler(source, store, alerter, DefaultInterval)
	s.tick(context.Background(), time.Now())
	s.tick(context.Background(), time.Now())

	// Denied every tick: never delivered, flag never cleared, retried each tick.
	alerter.AssertNumberOfCalls(t, "RequestPermission", 2)
	alerter.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ClearNotification", mock.Anything, mock.Anything)
}

func TestTick_DeliveryFailure_DoesNotClearFlag(t *testing.T) {
	source := &sliceSource{items: []domain.Todo{dueTodo("t1", "Pay rent", 5*time.Minute)}}
	store := &mockStore{}
	alerter := &mockAlerter{}
	alerter.On("RequestPermission", mock.Anything).Return(true, nil)
	alerter.On("Deliver", mock.Anything, mock.Anything).Return(assert.AnError)

	s := NewScheduler(source, store, alerter, DefaultInterval)
	s.tick(context.Background(), time.Now())

	store.AssertNotCalled(t, "ClearNotification", mock.Anything, mock.Anything)
}

func TestFirstDue_SkipsItemsWithoutSchedule(t *testing.T) {
	items := []domain.Todo{
		{TodoID: "t1", Title: "No dates", Notification: true},
		{TodoID: "t2", Title: "Bad date", Notification: true, StartDate: "tomorrow", StartTime: "10:00"},
		dueTodo("t3", "Valid", time.Minute),
	}
	got, ok := firstDue(items, time.Now())
	require.True(t, ok)
	assert.Equal(t, "t3", got.TodoID)
}

func TestAlertMessage(t *testing.T) {
	msg := AlertMessage(domain.Todo{Title: "Pay rent", StartDate: "2026-09-01", StartTime: "09:30"})
	assert.Equal(t, "Pay rent starts at 2026-09-01 09:30", msg)
}

func TestScheduler_StartStop_TicksUntilStopped(t *testing.T) {
	source := &sliceSource{items: []domain.Todo{dueTodo("t1", "Pay rent", time.Minute)}}
	store := &mockStore{}
	store.On("ClearNotification", mock.Anything, "t1").Return(nil)

	delivered := make(chan struct{}, 16)
	alerter := &mockAlerter{}
	alerter.On("RequestPermission", mock.Anything).Return(true, nil)
	alerter.On("Deliver", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		select {
		case delivered <- struct{}{}:
		default:
		}
	}).Return(nil)

	s := NewScheduler(source, store, alerter, 10*time.Millisecond)
	s.Start()
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("scheduler never ticked")
	}
	s.Stop()
}
