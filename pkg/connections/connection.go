package connections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// Connection is the uniform capability set every messaging channel
// implements. All operations absorb channel failures: they log the detail
// and return false or an empty result, never an error. One channel failing
// must not crash an otherwise-independent registry operation.
type Connection interface {
	// Connect performs a lightweight reachability/auth probe.
	Connect(ctx context.Context) bool

	// SendMessage delivers one message synchronously. Options may override
	// per-call behavior without mutating the stored settings. Returns true
	// only if the remote endpoint acknowledged success.
	SendMessage(ctx context.Context, text string, opts *SendOptions) bool

	// ReceiveMessages pulls pending messages (polling). Not a primary
	// delivery path; returns an empty slice on any failure.
	ReceiveMessages(ctx context.Context, opts *ReceiveOptions) []Message

	// Describe returns diagnostic info with identifying fields redacted.
	// Credentials are never included.
	Describe(ctx context.Context) Info
}

// SendOptions overrides per-call send behavior
type SendOptions struct {
	// ChatID overrides the configured target chat/thread
	ChatID    string                 `json:"chat_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ReceiveOptions tunes a polling read
type ReceiveOptions struct {
	Limit          int `json:"limit,omitempty"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Message is one inbound message normalized across channels
type Message struct {
	ID   int64                  `json:"id"`
	Text string                 `json:"text"`
	From map[string]interface{} `json:"from,omitempty"`
	Chat map[string]interface{} `json:"chat,omitempty"`
	Date int64                  `json:"date,omitempty"`
	Raw  map[string]interface{} `json:"raw,omitempty"`
}

// Info describes a connection for diagnostics. Identifying fields are
// masked; credentials are excluded entirely.
type Info struct {
	ConnectionType models.ConnectionType `json:"connection_type"`
	Identity       string                `json:"identity,omitempty"`
	Endpoint       string                `json:"endpoint,omitempty"`
	Connected      bool                  `json:"connected"`
	Settings       models.JSON           `json:"settings,omitempty"`
}

// BaseConnection provides common functionality for channel implementations
type BaseConnection struct {
	name   string
	logger *log.Logger
	client *http.Client
	cfg    config.ConnectionsConfig
}

// NewBaseConnection creates a new base connection
func NewBaseConnection(name string, logger *log.Logger, cfg config.ConnectionsConfig) *BaseConnection {
	return &BaseConnection{
		name:   name,
		logger: logger,
		// Per-call deadlines come from the contexts below; the client
		// timeout is a hard upper bound.
		client: &http.Client{
			Timeout: time.Duration(cfg.ReceiveTimeout+5) * time.Second,
		},
		cfg: cfg,
	}
}

// probeContext bounds a reachability probe
func (bc *BaseConnection) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(bc.cfg.ProbeTimeout)*time.Second)
}

// sendContext bounds a message delivery
func (bc *BaseConnection) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(bc.cfg.SendTimeout)*time.Second)
}

// receiveContext bounds a polling read
func (bc *BaseConnection) receiveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(bc.cfg.ReceiveTimeout)*time.Second)
}

// makeHTTPRequest makes an HTTP request with a JSON body
func (bc *BaseConnection) makeHTTPRequest(ctx context.Context, method, url string, headers map[string]string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader

	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set default headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "BotManager/1.0")

	// Set custom headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := bc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// handleHTTPResponse checks the response status against the channel's
// success codes and returns the failure detail for logging
func (bc *BaseConnection) handleHTTPResponse(resp *http.Response, successCodes []int) (bool, string) {
	defer resp.Body.Close()

	// Read response body for error details
	bodyBytes, _ := io.ReadAll(resp.Body)
	bodyString := string(bodyBytes)

	// Check if status code is in success codes
	for _, code := range successCodes {
		if resp.StatusCode == code {
			bc.logger.WithFields(map[string]interface{}{
				"connection":  bc.name,
				"status_code": resp.StatusCode,
			}).Debug("Channel call succeeded")
			return true, ""
		}
	}

	bc.logger.WithFields(map[string]interface{}{
		"connection":    bc.name,
		"status_code":   resp.StatusCode,
		"response_body": bodyString,
	}).Error("Channel call failed")

	return false, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bodyString)
}

// decodeJSONResponse reads and decodes a JSON response body
func (bc *BaseConnection) decodeJSONResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// logValidation logs a missing-credential failure as a named validation
// error. Channel implementations validate their required keys lazily per
// call, so the failure surfaces here rather than at construction.
func (bc *BaseConnection) logValidation(err *models.ValidationError) {
	bc.logger.WithFields(map[string]interface{}{
		"connection": bc.name,
		"field":      err.Field,
	}).Error(err.Error())
}

// maskTail redacts all but the last four characters of an identifier
func maskTail(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// Settings lookup helpers. Settings maps come from JSON, so numbers arrive
// as float64.

func settingString(settings models.JSON, key, fallback string) string {
	if v, ok := settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func settingBool(settings models.JSON, key string, fallback bool) bool {
	if v, ok := settings[key].(bool); ok {
		return v
	}
	return fallback
}

func settingInt(settings models.JSON, key string, fallback int) int {
	switch v := settings[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
