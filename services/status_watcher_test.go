package services

import (
	"context"
	"testing"
	"time"

	"rescuereach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(store *fakeStore, mirror *fakeMirror, pointer *fakePointer) *StatusWatcherService {
	return NewStatusWatcherService(mirror, store, pointer, testConfig())
}

func collectEvents(events <-chan models.WatchEvent) []models.WatchEvent {
	var out []models.WatchEvent
	for event := range events {
		out = append(out, event)
	}
	return out
}

func TestRunCountdownCompletes(t *testing.T) {
	watcher := newTestWatcher(newFakeStore(), newFakeMirror(), newFakePointer())

	events := make(chan models.WatchEvent, 16)
	done := make(chan []models.WatchEvent, 1)
	go func() {
		var seen []models.WatchEvent
		for event := range events {
			seen = append(seen, event)
		}
		done <- seen
	}()

	proceeded := watcher.RunCountdown(context.Background(), make(chan struct{}), events)
	close(events)
	seen := <-done

	assert.True(t, proceeded)
	require.NotEmpty(t, seen)
	assert.Equal(t, models.PhaseConfirming, seen[0].Phase)
	assert.Equal(t, testConfig().CountdownSeconds, seen[0].Countdown)
	assert.Equal(t, models.PhaseSubmitting, seen[len(seen)-1].Phase)
}

func TestRunCountdownCancelHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	watcher := newTestWatcher(store, newFakeMirror(), newFakePointer())

	events := make(chan models.WatchEvent, 16)
	cancel := make(chan struct{})
	close(cancel)

	proceeded := watcher.RunCountdown(context.Background(), cancel, events)
	close(events)

	assert.False(t, proceeded)
	seen := collectEvents(events)
	last := seen[len(seen)-1]
	assert.Equal(t, models.PhaseIdle, last.Phase)
	assert.True(t, last.Canceled)

	// Nothing was created anywhere.
	assert.Zero(t, store.saves)
}

func TestWatchEmitsCurrentStateThenTransitions(t *testing.T) {
	store := newFakeStore()
	mirror := newFakeMirror()
	pointer := newFakePointer()
	watcher := newTestWatcher(store, mirror, pointer)

	report := testReport(true)
	report.Status = models.StatusReceived
	mirror.Put(context.Background(), report.Projection())
	pointer.Acquire(context.Background(), report.UserID, report.ReportID)

	events, stop, err := watcher.Watch(context.Background(), report.ReportID)
	require.NoError(t, err)
	defer stop()

	// Resumed clients get the current state immediately.
	first := <-events
	assert.Equal(t, models.PhaseActive, first.Phase)
	assert.Equal(t, models.StatusReceived, first.Status)

	// A transition flows through the subscription.
	report.Status = models.StatusResponding
	mirror.Put(context.Background(), report.Projection())

	second := <-events
	assert.Equal(t, models.StatusResponding, second.Status)

	// Terminal status resolves the watch and clears the pointer.
	report.Status = models.StatusResolved
	mirror.Put(context.Background(), report.Projection())

	third := <-events
	assert.Equal(t, models.PhaseResolved, third.Phase)

	_, open := <-events
	assert.False(t, open, "event channel should close after resolution")

	deadline := time.After(time.Second)
	for {
		pointed, _ := pointer.Get(context.Background(), report.UserID)
		if pointed == "" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pointer was not cleared after resolution")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchDedupesUnchangedStatus(t *testing.T) {
	store := newFakeStore()
	mirror := newFakeMirror()
	watcher := newTestWatcher(store, mirror, newFakePointer())

	report := testReport(true)
	report.Status = models.StatusReceived
	mirror.Put(context.Background(), report.Projection())

	events, stop, err := watcher.Watch(context.Background(), report.ReportID)
	require.NoError(t, err)
	defer stop()

	<-events

	// Re-publishing the same status produces no event; the poll ticker
	// would otherwise spam one per interval.
	mirror.Put(context.Background(), report.Projection())

	select {
	case event := <-events:
		t.Fatalf("unexpected duplicate event: %+v", event)
	case <-time.After(150 * time.Millisecond):
	}
}
