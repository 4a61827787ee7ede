package services

import (
	"context"
	"time"

	"rescuereach/config"
	"rescuereach/interfaces"
	"rescuereach/models"

	"github.com/sirupsen/logrus"
)

// StatusWatcherService drives the client-facing view of an in-flight
// report: the pre-send countdown and the live status subscription. A watch
// is a held resource; callers must invoke the returned stop function.
type StatusWatcherService struct {
	mirror  interfaces.StatusMirror
	store   interfaces.ReportStore
	pointer interfaces.PointerStore
	cfg     *config.Config
}

func NewStatusWatcherService(
	mirror interfaces.StatusMirror,
	store interfaces.ReportStore,
	pointer interfaces.PointerStore,
	cfg *config.Config,
) *StatusWatcherService {
	return &StatusWatcherService{
		mirror:  mirror,
		store:   store,
		pointer: pointer,
		cfg:     cfg,
	}
}

// RunCountdown ticks down the confirmation window, emitting one event per
// second. It returns true when the countdown ran to zero, false when the
// user cancelled or the context ended. Cancellation here has no side
// effects: no report exists yet.
func (sw *StatusWatcherService) RunCountdown(ctx context.Context, cancel <-chan struct{}, events chan<- models.WatchEvent) bool {
	remaining := sw.cfg.CountdownSeconds
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining > 0 {
		events <- models.WatchEvent{
			Phase:     models.PhaseConfirming,
			Countdown: remaining,
			Message:   "Sending SOS unless cancelled",
		}

		select {
		case <-cancel:
			events <- models.WatchEvent{Phase: models.PhaseIdle, Canceled: true, Message: "SOS cancelled"}
			return false
		case <-ctx.Done():
			return false
		case <-ticker.C:
			remaining--
		}
	}

	events <- models.WatchEvent{Phase: models.PhaseSubmitting, Message: "Submitting emergency report"}
	return true
}

// Watch streams status updates for a report until it resolves or the stop
// function is called. Updates arrive through the mirror subscription, with
// a periodic primary-store poll as a safety net for missed publishes.
func (sw *StatusWatcherService) Watch(ctx context.Context, reportID string) (<-chan models.WatchEvent, func(), error) {
	updates, stopSub, err := sw.mirror.Subscribe(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	events := make(chan models.WatchEvent, 8)

	go func() {
		defer close(events)
		defer stopSub()

		// Emit the current state first so a resumed client is not stuck
		// waiting for the next transition.
		last := sw.emitCurrent(wctx, reportID, events, "")

		ticker := time.NewTicker(sw.cfg.WatchPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-wctx.Done():
				return
			case entry, ok := <-updates:
				if !ok {
					return
				}
				last = sw.deliver(wctx, entry, events, last)
				if entry.Status.Terminal() {
					sw.onResolved(wctx, entry)
					return
				}
			case <-ticker.C:
				last = sw.emitCurrent(wctx, reportID, events, last)
				if models.ReportStatus(last).Terminal() {
					return
				}
			}
		}
	}()

	return events, cancel, nil
}

// emitCurrent reads the projection and forwards it when the status moved.
// Returns the last delivered status.
func (sw *StatusWatcherService) emitCurrent(ctx context.Context, reportID string, events chan<- models.WatchEvent, last string) string {
	entry, err := sw.mirror.Get(ctx, reportID)
	if err != nil {
		report, rerr := sw.store.GetReportByID(ctx, reportID)
		if rerr != nil {
			logrus.Debugf("Watch poll for report %s failed: %v", reportID, rerr)
			return last
		}
		projection := report.Projection()
		entry = &projection
	}

	next := sw.deliver(ctx, *entry, events, last)
	if entry.Status.Terminal() {
		sw.onResolved(ctx, *entry)
	}
	return next
}

// deliver emits an event unless the status is unchanged since the last one.
func (sw *StatusWatcherService) deliver(ctx context.Context, entry models.LiveStatusEntry, events chan<- models.WatchEvent, last string) string {
	if string(entry.Status) == last {
		return last
	}

	phase := models.PhaseActive
	if entry.Status.Terminal() {
		phase = models.PhaseResolved
	}

	event := models.WatchEvent{
		Phase:  phase,
		Status: entry.Status,
		Entry:  &entry,
	}

	select {
	case events <- event:
	case <-ctx.Done():
	}
	return string(entry.Status)
}

// onResolved clears the user's active pointer. The pointer is dropped
// exactly when the lifecycle terminates, never on dismissal.
func (sw *StatusWatcherService) onResolved(ctx context.Context, entry models.LiveStatusEntry) {
	if entry.UserID == "" {
		return
	}
	if err := sw.pointer.Clear(ctx, entry.UserID); err != nil {
		logrus.Warnf("Failed to clear pointer for user %s after resolution: %v", entry.UserID, err)
	}
}
