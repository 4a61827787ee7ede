package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends messages through Twilio. It is the offline delivery path
// for SOS reports, so a send failure here is surfaced, never swallowed.
type SMSService struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewSMSService(accountSID, authToken, fromNumber string) *SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &SMSService{
		client:     client,
		fromNumber: fromNumber,
	}
}

// Send dispatches one message to one number. Callers segment long bodies
// before calling.
func (ss *SMSService) Send(ctx context.Context, phoneNumber, body string) error {
	if ss.fromNumber == "" {
		return fmt.Errorf("SMS gateway not configured")
	}

	params := &api.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(ss.fromNumber)
	params.SetBody(body)

	resp, err := ss.client.Api.CreateMessage(params)
	if err != nil {
		logrus.Errorf("Failed to send SMS to %s: %v", phoneNumber, err)
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if resp.ErrorCode != nil {
		return fmt.Errorf("SMS rejected by gateway: code %d", *resp.ErrorCode)
	}

	if resp.Sid != nil {
		logrus.Debugf("SMS queued, SID %s", *resp.Sid)
	}
	return nil
}
