package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Replier sends one text message back to a transport address.
type Replier interface {
	Reply(ctx context.Context, to, body string) error
}

// TwilioReplier sends WhatsApp replies through the Twilio REST API.
type TwilioReplier struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

func NewTwilioReplier(accountSID, authToken, from string, logger *zap.Logger) *TwilioReplier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioReplier{
		client: client,
		from:   from,
		logger: logger,
	}
}

func (r *TwilioReplier) Reply(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(whatsappAddress(r.from, to))
	params.SetBody(body)

	resp, err := r.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	if resp.Sid != nil {
		r.logger.Debug("Reply sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

// whatsappAddress prefixes the sender with the channel of the recipient so
// WhatsApp conversations are answered on WhatsApp.
func whatsappAddress(from, to string) string {
	if strings.HasPrefix(to, "whatsapp:") && !strings.HasPrefix(from, "whatsapp:") {
		return "whatsapp:" + from
	}
	return from
}
