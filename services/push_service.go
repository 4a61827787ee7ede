package services

import (
	"context"
	"fmt"
	"strings"

	"rescuereach/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
)

// PushService delivers notifications over FCM. Responder fan-out targets
// topic segments (role and state); reporter-facing updates target the
// per-user topic the mobile client subscribes to at login.
type PushService struct {
	client *messaging.Client
}

func NewPushService(client *messaging.Client) *PushService {
	return &PushService{client: client}
}

// SendToSegment pushes to every device matching the filter. Filters combine
// as an FCM topic condition; an empty filter is rejected rather than
// broadcast to everyone.
func (ps *PushService) SendToSegment(ctx context.Context, filter models.SegmentFilter, payload models.PushPayload) error {
	condition := buildCondition(filter)
	if condition == "" {
		return fmt.Errorf("refusing push with empty segment filter")
	}

	message := &messaging.Message{
		Condition: condition,
		Data:      payload.Data,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     payload.Sound,
				ChannelID: "emergency_alerts",
			},
		},
	}

	id, err := ps.client.Send(ctx, message)
	if err != nil {
		logrus.Errorf("Segment push failed (%s): %v", condition, err)
		return fmt.Errorf("segment push failed: %w", err)
	}
	logrus.Debugf("Segment push sent: %s", id)
	return nil
}

// SendToExternalID pushes to a single user's device topic.
func (ps *PushService) SendToExternalID(ctx context.Context, externalID string, payload models.PushPayload) error {
	message := &messaging.Message{
		Topic: userTopic(externalID),
		Data:  payload.Data,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     payload.Sound,
				ChannelID: "emergency_alerts",
			},
		},
	}

	id, err := ps.client.Send(ctx, message)
	if err != nil {
		logrus.Errorf("User push failed (%s): %v", externalID, err)
		return fmt.Errorf("user push failed: %w", err)
	}
	logrus.Debugf("User push sent: %s", id)
	return nil
}

func buildCondition(filter models.SegmentFilter) string {
	var clauses []string
	if filter.Role != "" {
		clauses = append(clauses, fmt.Sprintf("'role_%s' in topics", filter.Role))
	}
	if filter.State != "" {
		clauses = append(clauses, fmt.Sprintf("'state_%s' in topics", normalizeTopic(filter.State)))
	}
	return strings.Join(clauses, " && ")
}

func userTopic(userID string) string {
	return "user_" + normalizeTopic(userID)
}

// normalizeTopic maps arbitrary identifiers onto the FCM topic charset.
func normalizeTopic(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '~', r == '%':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}
