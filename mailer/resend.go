package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultResendURL = "https://api.resend.com"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// Resend posts messages to the Resend HTTP API.
type Resend struct {
	client *resty.Client
}

func NewResend(baseURL, apiKey string) *Resend {
	if baseURL == "" {
		baseURL = DefaultResendURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Resend{client: client}
}

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}

	var (
		out    resendResponse
		apiErr resendError
	)

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(resendRequest{From: msg.From, To: msg.To, Subject: msg.Subject, Text: msg.Text}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}

	if res.IsError() {
		if apiErr.Message != "" {
			return "", fmt.Errorf("resend: %s (%s, status %d)", apiErr.Message, apiErr.Name, res.StatusCode())
		}

		return "", fmt.Errorf("resend: unexpected status %d", res.StatusCode())
	}

	if out.ID == "" {
		return "", fmt.Errorf("resend: response carried no message id: %s", res.String())
	}

	return out.ID, nil
}
