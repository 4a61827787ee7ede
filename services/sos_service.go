package services

import (
	"context"
	"time"

	"rescuereach/interfaces"
	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
)

// SOSService is the orchestrating surface the API layer talks to: trigger,
// cancel, status reads, history, region feed and comments.
type SOSService struct {
	builder   *ReportBuilder
	router    *RouterService
	store     interfaces.ReportStore
	mirror    interfaces.StatusMirror
	pointer   interfaces.PointerStore
	queue     interfaces.SyncQueue
	notifier  *NotificationService
	validator *utils.ValidationService
}

func NewSOSService(
	builder *ReportBuilder,
	router *RouterService,
	store interfaces.ReportStore,
	mirror interfaces.StatusMirror,
	pointer interfaces.PointerStore,
	queue interfaces.SyncQueue,
	notifier *NotificationService,
	validator *utils.ValidationService,
) *SOSService {
	return &SOSService{
		builder:   builder,
		router:    router,
		store:     store,
		mirror:    mirror,
		pointer:   pointer,
		queue:     queue,
		notifier:  notifier,
		validator: validator,
	}
}

// TriggerSOS runs the full pipeline for one emergency trigger. At most one
// report per user can be in flight; a second trigger surfaces the existing
// report id instead of creating a duplicate.
func (ss *SOSService) TriggerSOS(ctx context.Context, userID string, req *models.TriggerSOSRequest) (*models.ProcessingOutcome, error) {
	if verrs := ss.validator.ValidateStruct(req); len(verrs) > 0 {
		return nil, utils.NewFieldValidationError(verrs)
	}
	if err := models.EmergencyType(req.EmergencyType).Validate(); err != nil {
		return nil, utils.NewInvalidEmergencyTypeError(req.EmergencyType)
	}

	report := ss.builder.Build(ctx, userID, req)

	acquired, existingID, err := ss.pointer.Acquire(ctx, userID, report.ReportID)
	if err != nil {
		// The pointer is a guard, not a gate: losing Redis must not stop
		// an emergency from going out.
		logrus.Warnf("Active-SOS pointer unavailable for user %s: %v", userID, err)
	} else if !acquired {
		return nil, utils.NewActiveSOSExistsError(existingID)
	}

	outcome, err := ss.router.Route(ctx, report)
	if err != nil {
		if clearErr := ss.pointer.Clear(ctx, userID); clearErr != nil {
			logrus.Warnf("Failed to release pointer for user %s: %v", userID, clearErr)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reportId":      outcome.Report.ReportID,
		"userId":        userID,
		"emergencyType": outcome.Report.EmergencyType,
		"channel":       outcome.Channel,
		"smsStatus":     outcome.Report.SMSStatus,
	}).Info("SOS report processed")

	return outcome, nil
}

// CancelSOS resolves a report at the user's request. Cancellation past the
// confirmation window is a status update, not a delete: the record stays.
func (ss *SOSService) CancelSOS(ctx context.Context, userID, reportID, reason string) error {
	report, err := ss.store.GetReportByID(ctx, reportID)
	if err != nil {
		if utils.IsNotFound(err) {
			// An offline-path report lives only in the sync queue until
			// the worker replays it.
			return ss.cancelQueued(ctx, userID, reportID, reason)
		}
		return err
	}
	if report.UserID != userID {
		return utils.NewForbiddenError("You can only cancel your own reports")
	}
	if report.Status == models.StatusResolved {
		// Idempotent: cancelling a finished report just clears the pointer.
		return ss.pointer.Clear(ctx, userID)
	}

	cancellation := &models.CancellationInfo{
		CancelledBy: userID,
		CancelledAt: time.Now(),
		Reason:      reason,
	}
	if err := ss.store.UpdateStatus(ctx, reportID, models.StatusResolved, nil, cancellation); err != nil {
		return err
	}

	report.Status = models.StatusResolved
	report.Cancellation = cancellation
	if err := ss.mirror.Put(ctx, report.Projection()); err != nil {
		logrus.Warnf("Mirror update after cancellation of %s failed: %v", reportID, err)
	}

	if err := ss.pointer.Clear(ctx, userID); err != nil {
		logrus.Warnf("Failed to clear pointer for user %s: %v", userID, err)
	}

	ss.notifier.NotifyReporter(ctx, report)
	return nil
}

// cancelQueued cancels a report that has not reached the primary store yet.
// The entry leaves the queue so the sync worker never announces a cancelled
// emergency; the resolved record is written to the store on a best-effort
// basis (the store was unreachable when the report was queued).
func (ss *SOSService) cancelQueued(ctx context.Context, userID, reportID, reason string) error {
	report, err := ss.queue.Find(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return utils.NewReportNotFoundError(reportID)
	}
	if report.UserID != userID {
		return utils.NewForbiddenError("You can only cancel your own reports")
	}

	if err := ss.queue.Remove(ctx, reportID); err != nil {
		return err
	}

	report.Status = models.StatusResolved
	report.Cancellation = &models.CancellationInfo{
		CancelledBy: userID,
		CancelledAt: time.Now(),
		Reason:      reason,
	}
	if _, err := ss.store.SaveReport(ctx, report); err != nil {
		logrus.Warnf("Cancelled queued report %s could not be persisted: %v", reportID, err)
	}

	if err := ss.pointer.Clear(ctx, userID); err != nil {
		logrus.Warnf("Failed to clear pointer for user %s: %v", userID, err)
	}
	return nil
}

// UpdateStatus advances a report on behalf of a responder.
func (ss *SOSService) UpdateStatus(ctx context.Context, reportID string, req *models.UpdateStatusRequest) (*models.SOSReport, error) {
	if verrs := ss.validator.ValidateStruct(req); len(verrs) > 0 {
		return nil, utils.NewFieldValidationError(verrs)
	}
	status := models.ReportStatus(req.Status)
	if err := status.Validate(); err != nil {
		return nil, utils.NewInvalidStatusError(req.Status)
	}

	if err := ss.store.UpdateStatus(ctx, reportID, status, req.ResponderInfo, nil); err != nil {
		return nil, err
	}

	report, err := ss.store.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if err := ss.mirror.Put(ctx, report.Projection()); err != nil {
		logrus.Warnf("Mirror update after status change of %s failed: %v", reportID, err)
	}

	if report.Status == models.StatusResolved {
		if err := ss.pointer.Clear(ctx, report.UserID); err != nil {
			logrus.Warnf("Failed to clear pointer for user %s: %v", report.UserID, err)
		}
	}

	ss.notifier.NotifyReporter(ctx, report)
	return report, nil
}

// GetReport returns the full report record.
func (ss *SOSService) GetReport(ctx context.Context, reportID string) (*models.SOSReport, error) {
	return ss.store.GetReportByID(ctx, reportID)
}

// GetLiveStatus reads the low-latency projection, falling back to the
// primary store when the mirror has no entry.
func (ss *SOSService) GetLiveStatus(ctx context.Context, reportID string) (*models.LiveStatusEntry, error) {
	entry, err := ss.mirror.Get(ctx, reportID)
	if err == nil {
		return entry, nil
	}

	report, err := ss.store.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	projection := report.Projection()
	return &projection, nil
}

// GetActiveReport resolves the user's in-flight report, if any. A stale
// pointer to a resolved report is repaired on read.
func (ss *SOSService) GetActiveReport(ctx context.Context, userID string) (*models.SOSReport, error) {
	reportID, err := ss.pointer.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reportID == "" {
		return nil, nil
	}

	report, err := ss.store.GetReportByID(ctx, reportID)
	if err != nil {
		if utils.IsNotFound(err) {
			// An offline-path report is absent from the primary store but
			// still active: it waits in the sync queue.
			if queued, qerr := ss.queue.Find(ctx, reportID); qerr == nil && queued != nil {
				return queued, nil
			}
			// Pointer outlived its report.
			ss.pointer.Clear(ctx, userID)
			return nil, nil
		}
		return nil, err
	}

	if report.Status == models.StatusResolved {
		ss.pointer.Clear(ctx, userID)
		return nil, nil
	}
	return report, nil
}

// GetHistory lists the user's past reports, newest first.
func (ss *SOSService) GetHistory(ctx context.Context, userID string, limit int) ([]models.SOSReport, error) {
	return ss.store.GetUserReports(ctx, userID, limit)
}

// GetRegionReports lists unresolved reports in a state for responders.
func (ss *SOSService) GetRegionReports(ctx context.Context, state string, limit int) ([]models.SOSReport, error) {
	if state == "" {
		return nil, utils.NewBadRequestError("Region is required")
	}
	return ss.store.GetActiveReportsByRegion(ctx, state, limit)
}

// DeleteReport removes a report and its index entries.
func (ss *SOSService) DeleteReport(ctx context.Context, userID, reportID string) error {
	report, err := ss.store.GetReportByID(ctx, reportID)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil // idempotent
		}
		return err
	}
	if report.UserID != userID {
		return utils.NewForbiddenError("You can only delete your own reports")
	}

	if err := ss.store.DeleteReport(ctx, reportID); err != nil {
		return err
	}
	if err := ss.mirror.Remove(ctx, reportID); err != nil {
		logrus.Warnf("Mirror cleanup for deleted report %s failed: %v", reportID, err)
	}
	return nil
}

// AddComment attaches a comment to an existing report.
func (ss *SOSService) AddComment(ctx context.Context, authorID, reportID string, req *models.AddCommentRequest) (*models.ReportComment, error) {
	if verrs := ss.validator.ValidateStruct(req); len(verrs) > 0 {
		return nil, utils.NewFieldValidationError(verrs)
	}
	if _, err := ss.store.GetReportByID(ctx, reportID); err != nil {
		return nil, err
	}

	comment := &models.ReportComment{
		ID:        utils.GenerateCommentID(),
		ReportID:  reportID,
		AuthorID:  authorID,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := ss.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComments lists a report's comments, oldest first.
func (ss *SOSService) GetComments(ctx context.Context, reportID string) ([]models.ReportComment, error) {
	if _, err := ss.store.GetReportByID(ctx, reportID); err != nil {
		return nil, err
	}
	return ss.store.GetComments(ctx, reportID)
}
