package connections

import (
	"context"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// WebhookConnection delivers to any HTTP endpoint speaking the generic
// webhook contract. Required credentials: api_key (secret optional).
type WebhookConnection struct {
	*BaseConnection
	config models.ConnectionConfig
}

// NewWebhookConnection creates a new generic webhook connection
func NewWebhookConnection(cfg models.ConnectionConfig, logger *log.Logger, connCfg config.ConnectionsConfig) *WebhookConnection {
	return &WebhookConnection{
		BaseConnection: NewBaseConnection("webhook", logger, connCfg),
		config:         cfg,
	}
}

// headers builds the auth headers set on every outbound and inbound call
func (wc *WebhookConnection) headers() map[string]string {
	headers := make(map[string]string)
	if apiKey := wc.config.Credentials["api_key"]; apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	if secret := wc.config.Credentials["secret"]; secret != "" {
		headers["X-Secret"] = secret
	}
	return headers
}

// requireAPIKey validates the api_key credential lazily per call
func (wc *WebhookConnection) requireAPIKey() bool {
	if wc.config.Credentials["api_key"] == "" {
		wc.logValidation(models.NewValidationError("credentials.api_key", "is required for webhook"))
		return false
	}
	return true
}

// Connect probes the endpoint's health route
func (wc *WebhookConnection) Connect(ctx context.Context) bool {
	if !wc.requireAPIKey() {
		return false
	}

	ctx, cancel := wc.probeContext(ctx)
	defer cancel()

	resp, err := wc.makeHTTPRequest(ctx, "GET", wc.config.Endpoint+"/health", wc.headers(), nil)
	if err != nil {
		wc.logger.WithError(err).Error("Webhook connection test failed")
		return false
	}

	ok, _ := wc.handleHTTPResponse(resp, []int{200})
	return ok
}

// SendMessage posts one message to the endpoint
func (wc *WebhookConnection) SendMessage(ctx context.Context, text string, opts *SendOptions) bool {
	if !wc.requireAPIKey() {
		return false
	}

	payload := map[string]interface{}{
		"message": text,
	}
	if opts != nil {
		if opts.Timestamp != "" {
			payload["timestamp"] = opts.Timestamp
		}
		if opts.Metadata != nil {
			payload["metadata"] = opts.Metadata
		}
	}

	ctx, cancel := wc.sendContext(ctx)
	defer cancel()

	resp, err := wc.makeHTTPRequest(ctx, "POST", wc.config.Endpoint, wc.headers(), payload)
	if err != nil {
		wc.logger.WithError(err).Error("Failed to send webhook message")
		return false
	}

	ok, _ := wc.handleHTTPResponse(resp, []int{200})
	return ok
}

// ReceiveMessages polls the endpoint's messages route
func (wc *WebhookConnection) ReceiveMessages(ctx context.Context, opts *ReceiveOptions) []Message {
	if !wc.requireAPIKey() {
		return []Message{}
	}

	ctx, cancel := wc.receiveContext(ctx)
	defer cancel()

	resp, err := wc.makeHTTPRequest(ctx, "GET", wc.config.Endpoint+"/messages", wc.headers(), nil)
	if err != nil {
		wc.logger.WithError(err).Error("Failed to receive webhook messages")
		return []Message{}
	}

	if resp.StatusCode != 200 {
		wc.handleHTTPResponse(resp, []int{200})
		return []Message{}
	}

	var body struct {
		Messages []map[string]interface{} `json:"messages"`
	}
	if err := wc.decodeJSONResponse(resp, &body); err != nil {
		wc.logger.WithError(err).Error("Failed to decode webhook messages")
		return []Message{}
	}

	formatted := make([]Message, 0, len(body.Messages))
	for _, raw := range body.Messages {
		msg := Message{Raw: raw}
		if id, ok := raw["id"].(float64); ok {
			msg.ID = int64(id)
		}
		if text, ok := raw["text"].(string); ok {
			msg.Text = text
		} else if text, ok := raw["message"].(string); ok {
			msg.Text = text
		}
		formatted = append(formatted, msg)
	}
	return formatted
}

// Describe returns diagnostic info with the endpoint surfaced and
// credentials excluded
func (wc *WebhookConnection) Describe(ctx context.Context) Info {
	return Info{
		ConnectionType: models.ConnectionWebhook,
		Endpoint:       wc.config.Endpoint,
		Connected:      wc.Connect(ctx),
		Settings:       wc.config.Settings,
	}
}
