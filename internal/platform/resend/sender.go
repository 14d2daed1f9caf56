// Package resend submits notification emails through the Resend HTTP API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/paintops/go-notification-service/pkg/dispatch"
)

// DefaultAPIURL is the production endpoint of the provider.
const DefaultAPIURL = "https://api.resend.com"

type Config struct {
	APIKey string
	APIURL string
	From   string
}

type Sender struct {
	apiKey     string
	apiURL     string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSender(cfg Config, httpClient *http.Client, logger *slog.Logger) *Sender {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Sender{
		apiKey:     cfg.APIKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		from:       cfg.From,
		httpClient: httpClient,
		logger:     logger.With("component", "ResendSender"),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send submits one email. Transport errors and non-2xx responses are errors.
func (s *Sender) Send(ctx context.Context, msg dispatch.EmailMessage) error {
	body, err := json.Marshal(sendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email transport failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email provider rejected message: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	s.logger.Debug("Email accepted by provider", "to", msg.To, "status", resp.StatusCode)
	return nil
}

var _ dispatch.EmailSender = (*Sender)(nil)
