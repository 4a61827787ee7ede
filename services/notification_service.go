package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rescuereach/interfaces"
	"rescuereach/models"
	"rescuereach/utils"

	"github.com/sirupsen/logrus"
)

// pushTemplate is the responder-facing notification copy for one
// emergency type.
type pushTemplate struct {
	Title string
	Body  string
}

var responderTemplates = map[models.EmergencyType]pushTemplate{
	models.EmergencyTypePolice: {
		Title: "🚨 Police Emergency Nearby",
		Body:  "%s reported a police emergency%s. Open the app to respond.",
	},
	models.EmergencyTypeFire: {
		Title: "🔥 Fire Emergency Nearby",
		Body:  "%s reported a fire emergency%s. Open the app to respond.",
	},
	models.EmergencyTypeMedical: {
		Title: "🏥 Medical Emergency Nearby",
		Body:  "%s reported a medical emergency%s. Open the app to respond.",
	},
}

var statusMessages = map[models.ReportStatus]string{
	models.StatusPending:    "Your emergency report has been submitted.",
	models.StatusReceived:   "Your emergency report has been received.",
	models.StatusResponding: "Help is on the way.",
	models.StatusResolved:   "Your emergency report has been resolved.",
}

// NotificationService is the fan-out stage: responder push, emergency-contact
// SMS, and reporter-facing status updates. Nothing here raises; every
// failure is logged and reflected at most in the report's SMS status.
type NotificationService struct {
	push interfaces.PushSender
	sms  interfaces.SMSSender
}

func NewNotificationService(push interfaces.PushSender, sms interfaces.SMSSender) *NotificationService {
	return &NotificationService{
		push: push,
		sms:  sms,
	}
}

// NotifyResponders pushes a type-specific alert to responders in the
// report's state. Best effort.
func (ns *NotificationService) NotifyResponders(ctx context.Context, report *models.SOSReport) {
	template, ok := responderTemplates[report.EmergencyType]
	if !ok {
		logrus.Errorf("No responder template for emergency type %s", report.EmergencyType)
		return
	}

	where := ""
	if report.Address != "" {
		where = " near " + report.Address
	} else if report.Location != nil {
		where = " at " + utils.FormatCoordinates(report.Location.Latitude, report.Location.Longitude)
	}

	reporter := report.UserInfo.FullName
	if reporter == "" {
		reporter = "A citizen"
	}

	payload := models.PushPayload{
		Title: template.Title,
		Body:  fmt.Sprintf(template.Body, reporter, where),
		Sound: "emergency_alert",
		Data: map[string]string{
			"reportId":      report.ReportID,
			"emergencyType": string(report.EmergencyType),
			"status":        string(report.Status),
		},
	}

	filter := models.SegmentFilter{
		Role:  models.RoleResponder,
		State: report.State,
	}

	if err := ns.push.SendToSegment(ctx, filter, payload); err != nil {
		logrus.Warnf("Responder fan-out failed for report %s: %v", report.ReportID, err)
	}
}

// SendContactSMS texts every emergency contact on the report. Each send is
// independent; the aggregate outcome is SENT, PARTIAL or FAILED.
func (ns *NotificationService) SendContactSMS(ctx context.Context, report *models.SOSReport) models.SMSStatus {
	body := ns.buildSMSBody(report)
	segments := utils.SplitSMS(body)

	attempted, succeeded := 0, 0
	for _, contact := range report.EmergencyContacts {
		phone := utils.NormalizePhoneNumber(contact.Phone)
		if phone == "" {
			logrus.Warnf("Skipping contact %q on report %s: no valid number", contact.Name, report.ReportID)
			continue
		}

		attempted++
		if ns.sendSegments(ctx, phone, segments) {
			succeeded++
		} else {
			logrus.Errorf("SMS to %s failed for report %s", phone, report.ReportID)
		}
	}

	switch {
	case attempted == 0:
		return models.SMSStatusFailed
	case succeeded == attempted:
		return models.SMSStatusSent
	case succeeded > 0:
		return models.SMSStatusPartial
	default:
		return models.SMSStatusFailed
	}
}

func (ns *NotificationService) sendSegments(ctx context.Context, phone string, segments []string) bool {
	for i, segment := range segments {
		if len(segments) > 1 {
			segment = fmt.Sprintf("(%d/%d) %s", i+1, len(segments), segment)
		}
		if err := ns.sms.Send(ctx, phone, segment); err != nil {
			return false
		}
	}
	return true
}

// NotifyReporter sends a status-update push to the original reporter only.
func (ns *NotificationService) NotifyReporter(ctx context.Context, report *models.SOSReport) {
	message, ok := statusMessages[report.Status]
	if !ok {
		message = "Your emergency report status changed."
	}
	if report.Canceled() {
		message = "Your emergency report has been cancelled."
	}

	payload := models.PushPayload{
		Title: "Emergency Report Update",
		Body:  message,
		Data: map[string]string{
			"reportId": report.ReportID,
			"status":   string(report.Status),
		},
	}

	if err := ns.push.SendToExternalID(ctx, report.UserID, payload); err != nil {
		logrus.Warnf("Reporter status push failed for report %s: %v", report.ReportID, err)
	}
}

func (ns *NotificationService) buildSMSBody(report *models.SOSReport) string {
	var b strings.Builder

	name := report.UserInfo.FullName
	if name == "" {
		name = "Your contact"
	}
	fmt.Fprintf(&b, "EMERGENCY: %s needs help (%s emergency).", name, strings.ToLower(string(report.EmergencyType)))

	if report.Address != "" {
		// Long formatted addresses get cut so the body stays near one
		// segment; the map link carries the exact point.
		fmt.Fprintf(&b, " Location: %s.", utils.TruncateString(report.Address, 120))
	} else if report.Location != nil {
		fmt.Fprintf(&b, " Location: %s.", utils.FormatCoordinates(report.Location.Latitude, report.Location.Longitude))
	} else {
		b.WriteString(" Location unknown.")
	}

	if report.Location != nil {
		fmt.Fprintf(&b, " Map: https://maps.google.com/?q=%.5f,%.5f.",
			report.Location.Latitude, report.Location.Longitude)
	}

	fmt.Fprintf(&b, " Sent %s via RescueReach.", report.Timestamp.Format(time.Kitchen))
	return b.String()
}
