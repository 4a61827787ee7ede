package repositories

import (
	"context"
	"fmt"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository is the MongoDB-backed primary store for SOS reports.
// Reports are keyed by the client-assigned report id so retried saves of the
// same report collapse into a single document.
type ReportRepository struct {
	client             *mongo.Client
	database           *mongo.Database
	reportsCollection  *mongo.Collection
	historyCollection  *mongo.Collection
	commentsCollection *mongo.Collection
}

func NewReportRepository(client *mongo.Client, database *mongo.Database) *ReportRepository {
	return &ReportRepository{
		client:             client,
		database:           database,
		reportsCollection:  database.Collection("sos_reports"),
		historyCollection:  database.Collection("sos_history"),
		commentsCollection: database.Collection("sos_comments"),
	}
}

// SaveReport persists a report. The write is an upsert on the report id, so
// calling it again with the same report is a no-op rather than a duplicate.
func (rr *ReportRepository) SaveReport(ctx context.Context, report *models.SOSReport) (*models.SOSReport, error) {
	now := time.Now()
	if report.Timestamp.IsZero() {
		report.Timestamp = now
	}
	if report.Status == "" {
		report.Status = models.StatusPending
	}
	report.StatusUpdatedAt = now
	report.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	result, err := rr.reportsCollection.ReplaceOne(ctx, bson.M{"_id": report.ReportID}, report, opts)
	if err != nil {
		logrus.Errorf("Failed to save report %s: %v", report.ReportID, err)
		return nil, utils.WrapDatabaseError(err, "save report")
	}

	// Per-user index entry; the counter moves only on first insert.
	historyUpdate := bson.M{
		"$set": bson.M{
			fmt.Sprintf("reports.%s", report.ReportID): models.HistoryEntry{
				ReportID:      report.ReportID,
				EmergencyType: report.EmergencyType,
				Status:        report.Status,
				Timestamp:     report.Timestamp,
			},
			"updatedAt": now,
		},
	}
	if result.UpsertedCount > 0 {
		historyUpdate["$inc"] = bson.M{"reportCount": 1}
	}

	_, err = rr.historyCollection.UpdateOne(
		ctx,
		bson.M{"userId": report.UserID},
		historyUpdate,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// The primary record exists; a stale index entry is repairable.
		logrus.Warnf("Failed to index report %s for user %s: %v", report.ReportID, report.UserID, err)
	}

	return report, nil
}

// UpdateStatus advances a report's lifecycle state. The update is conditional
// on the current status being at or below the requested one, so a late or
// duplicated lower-ranked update can never roll an advanced report back. The
// primary record and the per-user index move together in one transaction.
func (rr *ReportRepository) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, responderInfo map[string]string, cancellation *models.CancellationInfo) error {
	if err := status.Validate(); err != nil {
		return utils.NewInvalidStatusError(string(status))
	}

	now := time.Now()
	setFields := bson.M{
		"status":          status,
		"statusUpdatedAt": now,
		"updatedAt":       now,
	}
	if len(responderInfo) > 0 {
		setFields["responderInfo"] = responderInfo
	}
	if cancellation != nil {
		setFields["cancellationInfo"] = cancellation
	}

	filter := bson.M{
		"_id":    reportID,
		"status": bson.M{"$in": models.StatusesBelow(status)},
	}

	session, err := rr.client.StartSession()
	if err != nil {
		return utils.WrapDatabaseError(err, "start session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := rr.reportsCollection.UpdateOne(sc, filter, bson.M{"$set": setFields})
		if err != nil {
			return nil, err
		}

		if result.MatchedCount == 0 {
			// Either the report is missing or the current status outranks
			// the requested one. Distinguish, and let an idempotent retry
			// of the same status pass.
			var current models.SOSReport
			err := rr.reportsCollection.FindOne(sc, bson.M{"_id": reportID}).Decode(&current)
			if err == mongo.ErrNoDocuments {
				return nil, utils.NewReportNotFoundError(reportID)
			}
			if err != nil {
				return nil, err
			}
			if current.Status == status {
				return nil, nil
			}
			return nil, utils.NewStatusRegressionError(string(current.Status), string(status))
		}

		var report models.SOSReport
		if err := rr.reportsCollection.FindOne(sc, bson.M{"_id": reportID}).Decode(&report); err != nil {
			return nil, err
		}

		_, err = rr.historyCollection.UpdateOne(sc,
			bson.M{"userId": report.UserID},
			bson.M{"$set": bson.M{
				fmt.Sprintf("reports.%s.status", reportID): status,
				"updatedAt": now,
			}},
		)
		return nil, err
	})

	if err != nil {
		if utils.IsServiceError(err) {
			return err
		}
		logrus.Errorf("Failed to update status of report %s: %v", reportID, err)
		return utils.WrapDatabaseError(err, "update report status")
	}

	return nil
}

func (rr *ReportRepository) GetReportByID(ctx context.Context, reportID string) (*models.SOSReport, error) {
	var report models.SOSReport
	err := rr.reportsCollection.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	if err != nil {
		logrus.Errorf("Failed to get report %s: %v", reportID, err)
		return nil, utils.WrapDatabaseError(err, "get report")
	}
	return &report, nil
}

// GetUserReports returns the user's reports, most recent first.
func (rr *ReportRepository) GetUserReports(ctx context.Context, userID string, limit int) ([]models.SOSReport, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := rr.reportsCollection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		logrus.Errorf("Failed to list reports for user %s: %v", userID, err)
		return nil, utils.WrapDatabaseError(err, "list user reports")
	}
	defer cursor.Close(ctx)

	reports := []models.SOSReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, utils.WrapDatabaseError(err, "decode user reports")
	}
	return reports, nil
}

// GetActiveReportsByRegion returns unresolved reports in a state, newest
// unacknowledged first.
func (rr *ReportRepository) GetActiveReportsByRegion(ctx context.Context, state string, limit int) ([]models.SOSReport, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{
		"state":  state,
		"status": bson.M{"$ne": models.StatusResolved},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := rr.reportsCollection.Find(ctx, filter, opts)
	if err != nil {
		logrus.Errorf("Failed to list active reports for state %s: %v", state, err)
		return nil, utils.WrapDatabaseError(err, "list region reports")
	}
	defer cursor.Close(ctx)

	reports := []models.SOSReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, utils.WrapDatabaseError(err, "decode region reports")
	}
	return reports, nil
}

// DeleteReport removes a report and its index entry. Deleting an already
// deleted report is not an error.
func (rr *ReportRepository) DeleteReport(ctx context.Context, reportID string) error {
	var report models.SOSReport
	err := rr.reportsCollection.FindOne(ctx, bson.M{"_id": reportID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return utils.WrapDatabaseError(err, "get report for delete")
	}

	if _, err := rr.reportsCollection.DeleteOne(ctx, bson.M{"_id": reportID}); err != nil {
		logrus.Errorf("Failed to delete report %s: %v", reportID, err)
		return utils.WrapDatabaseError(err, "delete report")
	}

	_, err = rr.historyCollection.UpdateOne(ctx,
		bson.M{"userId": report.UserID},
		bson.M{
			"$unset": bson.M{fmt.Sprintf("reports.%s", reportID): ""},
			"$inc":   bson.M{"reportCount": -1},
			"$set":   bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		logrus.Warnf("Failed to unindex report %s: %v", reportID, err)
	}

	if _, err := rr.commentsCollection.DeleteMany(ctx, bson.M{"reportId": reportID}); err != nil {
		logrus.Warnf("Failed to delete comments of report %s: %v", reportID, err)
	}

	return nil
}

func (rr *ReportRepository) AddComment(ctx context.Context, comment *models.ReportComment) error {
	if comment.ID == "" {
		comment.ID = utils.GenerateCommentID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	if _, err := rr.commentsCollection.InsertOne(ctx, comment); err != nil {
		logrus.Errorf("Failed to add comment to report %s: %v", comment.ReportID, err)
		return utils.WrapDatabaseError(err, "add comment")
	}
	return nil
}

func (rr *ReportRepository) GetComments(ctx context.Context, reportID string) ([]models.ReportComment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := rr.commentsCollection.Find(ctx, bson.M{"reportId": reportID}, opts)
	if err != nil {
		return nil, utils.WrapDatabaseError(err, "list comments")
	}
	defer cursor.Close(ctx)

	comments := []models.ReportComment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, utils.WrapDatabaseError(err, "decode comments")
	}
	return comments, nil
}
