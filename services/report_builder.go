package services

import (
	"context"
	"time"

	"rescuereach/models"
	"rescuereach/utils"
)

// ReportBuilder sequences collection and resolution into one report. Build
// is total: every substep degrades gracefully, so the caller always gets a
// usable report back.
type ReportBuilder struct {
	collector *CollectorService
	resolver  *ResolverService
}

func NewReportBuilder(collector *CollectorService, resolver *ResolverService) *ReportBuilder {
	return &ReportBuilder{
		collector: collector,
		resolver:  resolver,
	}
}

// Build assembles a report for a trigger request. The report id is assigned
// here, client-side of the stores, so persistence retries stay idempotent.
func (rb *ReportBuilder) Build(ctx context.Context, userID string, req *models.TriggerSOSRequest) *models.SOSReport {
	emergencyType := models.EmergencyType(req.EmergencyType)
	reportContext := rb.collector.Collect(ctx, userID, req)

	region := reportContext.User.State
	if reportContext.Address != nil && reportContext.Address.State != "" {
		region = reportContext.Address.State
	}

	report := &models.SOSReport{
		ReportID:          utils.GenerateReportID(),
		EmergencyType:     emergencyType,
		UserID:            userID,
		UserInfo:          reportContext.User,
		Location:          reportContext.Location,
		Device:            reportContext.Device,
		EmergencyContacts: reportContext.Contacts,
		IsOnline:          reportContext.IsOnline,
		SMSStatus:         models.SMSStatusPending,
		Status:            models.StatusPending,
		Timestamp:         time.Now(),
	}

	if reportContext.Address != nil {
		report.Address = reportContext.Address.Address
		report.City = reportContext.Address.City
		report.State = reportContext.Address.State
	}
	if report.State == "" {
		report.State = reportContext.User.State
	}

	// Nearby services are an online enrichment; offline we go straight to
	// the fallback entry so the field is still never empty.
	if reportContext.IsOnline {
		report.NearbyServices = rb.resolver.Resolve(ctx, emergencyType, reportContext.Location, region)
	} else {
		report.NearbyServices = []models.EmergencyService{rb.resolver.Fallback(emergencyType, region)}
	}

	return report
}
