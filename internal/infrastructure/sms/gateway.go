package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Gateway delivers a text message to a phone number. A nil error is the
// provider's delivery acknowledgement.
type Gateway interface {
	Send(ctx context.Context, destination, message string) error
}

type httpGateway struct {
	client *resty.Client
	url    string
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewHTTPGateway posts messages as JSON to url with apiKey as a bearer token.
func NewHTTPGateway(url, apiKey string, timeout time.Duration) Gateway {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &httpGateway{client: client, url: url}
}

func (g *httpGateway) Send(ctx context.Context, destination, message string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(sendRequest{To: destination, Message: message}).
		Post(g.url)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type logGateway struct {
	log *logrus.Entry
}

// NewLogGateway writes messages to the log instead of sending them. It is
// meant for local development only.
func NewLogGateway(log *logrus.Entry) Gateway {
	return &logGateway{log: log}
}

func (g *logGateway) Send(_ context.Context, destination, message string) error {
	g.log.WithFields(logrus.Fields{"action": "sms_send", "to": destination}).Info(message)
	return nil
}
