// Package onesignal provides the batched push provider backed by the OneSignal REST API.
package onesignal

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
const DefaultAPIURL = "https://onesignal.com/api/v1"

// Languages the app ships copy for. The same text is sent for each; the
// client picks by device locale.
var languages = []string{"en", "nl"}

type Config struct {
	AppID  string
	APIKey string
	APIURL string
}

type Dispatcher struct {
	appID      string
	apiKey     string
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDispatcher(cfg Config, httpClient *http.Client, logger *slog.Logger) *Dispatcher {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Dispatcher{
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("component", "OneSignalDispatcher"),
	}
}

type createNotification struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	URL              string            `json:"url,omitempty"`
	WebPushTopic     string            `json:"web_push_topic,omitempty"`
	Data             map[string]string `json:"data,omitempty"`
}

type createResponse struct {
	ID     string          `json:"id"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

// Send submits one notification covering every device id.
func (d *Dispatcher) Send(ctx context.Context, deviceIDs []string, msg dispatch.PushMessage) (string, error) {
	if len(deviceIDs) == 0 {
		return "", fmt.Errorf("no device ids")
	}

	payload := createNotification{
		AppID:            d.appID,
		IncludePlayerIDs: deviceIDs,
		Headings:         localized(msg.Title),
		Contents:         localized(msg.Body),
		URL:              msg.URL,
		WebPushTopic:     msg.Topic,
		Data:             msg.Data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("push transport failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read push response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("push provider rejected batch: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed createResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.ID == "" && len(parsed.Errors) > 0 {
		// 200 with no notification id means nobody was targeted.
		return "", fmt.Errorf("push provider created no notification: %s", string(parsed.Errors))
	}

	d.logger.Debug("Push batch accepted", "devices", len(deviceIDs), "notification_id", parsed.ID)
	return string(raw), nil
}

func localized(text string) map[string]string {
	m := make(map[string]string, len(languages))
	for _, lang := range languages {
		m[lang] = text
	}
	return m
}

var _ dispatch.PushProvider = (*Dispatcher)(nil)
