package mailer

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSSender interface {
	SendSMS(to, body string) error
}

type twilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds an SMS sender backed by the Twilio messaging API
func NewTwilioSender(accountSID, authToken, from string) SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &twilioSender{client: client, from: from}
}

func (s *twilioSender) SendSMS(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms: send to %s failed: %w", to, err)
	}
	return nil
}

type disabledSMS struct {
	log zerolog.Logger
}

// NewDisabledSMS returns an SMS sender that drops every message
func NewDisabledSMS(log zerolog.Logger) SMSSender {
	return &disabledSMS{log: log.With().Str("component", "sms").Logger()}
}

func (s *disabledSMS) SendSMS(to, body string) error {
	s.log.Debug().Str("to", to).Msg("sms delivery disabled, message dropped")
	return nil
}
