package services

import (
	"context"

	"rescuereach/config"
	"rescuereach/interfaces"
	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
)

// RouterService decides and drives the delivery path for a built report.
// Online: persist, mirror, responder fan-out, contact SMS, then advance to
// RECEIVED. Offline: contact SMS only, queued for later cloud sync. A
// primary-store failure on the online path falls back to offline instead of
// surfacing an error; the only hard failure is the offline path with no
// deliverable SMS.
type RouterService struct {
	store    interfaces.ReportStore
	mirror   interfaces.StatusMirror
	notifier *NotificationService
	queue    interfaces.SyncQueue
	cfg      *config.Config
}

func NewRouterService(
	store interfaces.ReportStore,
	mirror interfaces.StatusMirror,
	notifier *NotificationService,
	queue interfaces.SyncQueue,
	cfg *config.Config,
) *RouterService {
	return &RouterService{
		store:    store,
		mirror:   mirror,
		notifier: notifier,
		queue:    queue,
		cfg:      cfg,
	}
}

// Route processes a report down its delivery path and returns the outcome.
func (rs *RouterService) Route(ctx context.Context, report *models.SOSReport) (*models.ProcessingOutcome, error) {
	if report.IsOnline {
		return rs.routeOnline(ctx, report)
	}
	return rs.routeOffline(ctx, report)
}

func (rs *RouterService) routeOnline(ctx context.Context, report *models.SOSReport) (*models.ProcessingOutcome, error) {
	sctx, cancel := context.WithTimeout(ctx, rs.cfg.StoreTimeout)
	saved, err := rs.store.SaveReport(sctx, report)
	cancel()
	if err != nil {
		// Path switch, not a failure: the SMS channel still works.
		logrus.Errorf("Primary-store write failed for report %s, falling back to SMS: %v", report.ReportID, err)
		report.IsOnline = false
		return rs.routeOffline(ctx, report)
	}
	report = saved

	if err := rs.mirror.Put(ctx, report.Projection()); err != nil {
		logrus.Warnf("Live-status mirror write failed for report %s: %v", report.ReportID, err)
	}

	rs.notifier.NotifyResponders(ctx, report)

	rs.attemptContactSMS(ctx, report)

	// The pipeline itself has received the emergency at this point,
	// whatever the SMS outcome was.
	if err := rs.store.UpdateStatus(ctx, report.ReportID, models.StatusReceived, nil, nil); err != nil {
		logrus.Warnf("Auto-advance to RECEIVED failed for report %s: %v", report.ReportID, err)
	} else {
		report.Status = models.StatusReceived
		if err := rs.mirror.Put(ctx, report.Projection()); err != nil {
			logrus.Warnf("Live-status mirror update failed for report %s: %v", report.ReportID, err)
		}
	}

	return &models.ProcessingOutcome{
		Report:    report,
		Delivered: true,
		Channel:   "online",
		Message:   "Emergency report submitted.",
	}, nil
}

func (rs *RouterService) routeOffline(ctx context.Context, report *models.SOSReport) (*models.ProcessingOutcome, error) {
	if len(report.EmergencyContacts) == 0 {
		return nil, utils.NewDeliveryFailedError(nil)
	}

	status := rs.notifier.SendContactSMS(ctx, report)
	report.SMSStatus = status
	report.SMSSent = status == models.SMSStatusSent || status == models.SMSStatusPartial

	if status == models.SMSStatusFailed {
		return nil, utils.NewDeliveryFailedError(nil)
	}

	// Queue the report so it reaches the cloud stores once connectivity
	// returns.
	if err := rs.queue.Enqueue(ctx, report); err != nil {
		logrus.Warnf("Failed to queue offline report %s for sync: %v", report.ReportID, err)
	}

	return &models.ProcessingOutcome{
		Report:    report,
		Delivered: true,
		Channel:   "offline",
		Message:   "Emergency reported by SMS to your contacts.",
	}, nil
}

// attemptContactSMS runs the SMS step on the online path and persists the
// resulting SMS fields. Best effort throughout.
func (rs *RouterService) attemptContactSMS(ctx context.Context, report *models.SOSReport) {
	if len(report.EmergencyContacts) == 0 {
		report.SMSStatus = models.SMSStatusFailed
	} else {
		status := rs.notifier.SendContactSMS(ctx, report)
		report.SMSStatus = status
		report.SMSSent = status == models.SMSStatusSent || status == models.SMSStatusPartial
	}

	if _, err := rs.store.SaveReport(ctx, report); err != nil {
		logrus.Warnf("Failed to persist SMS outcome on report %s: %v", report.ReportID, err)
	}
}
