package connections

import (
	"context"
	"time"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// DiscordConnection posts to a Discord channel webhook. The webhook URL
// comes from the webhook_url credential, falling back to the endpoint.
// Discord webhooks are send-only.
type DiscordConnection struct {
	*BaseConnection
	config models.ConnectionConfig
}

// NewDiscordConnection creates a new Discord connection
func NewDiscordConnection(cfg models.ConnectionConfig, logger *log.Logger, connCfg config.ConnectionsConfig) *DiscordConnection {
	return &DiscordConnection{
		BaseConnection: NewBaseConnection("discord", logger, connCfg),
		config:         cfg,
	}
}

// webhookURL resolves the target webhook, validated lazily per call
func (dc *DiscordConnection) webhookURL() (string, bool) {
	url := dc.config.Credentials["webhook_url"]
	if url == "" {
		url = dc.config.Endpoint
	}
	if url == "" {
		dc.logValidation(models.NewValidationError("credentials.webhook_url", "is required for discord"))
		return "", false
	}
	return url, true
}

// Connect probes the webhook info endpoint; Discord answers GET on the
// webhook URL with 200 when the webhook exists.
func (dc *DiscordConnection) Connect(ctx context.Context) bool {
	url, ok := dc.webhookURL()
	if !ok {
		return false
	}

	ctx, cancel := dc.probeContext(ctx)
	defer cancel()

	resp, err := dc.makeHTTPRequest(ctx, "GET", url, nil, nil)
	if err != nil {
		dc.logger.WithError(err).Error("Discord connection test failed")
		return false
	}

	connected, _ := dc.handleHTTPResponse(resp, []int{200})
	return connected
}

// SendMessage posts one message as webhook content with an embed
func (dc *DiscordConnection) SendMessage(ctx context.Context, text string, opts *SendOptions) bool {
	url, ok := dc.webhookURL()
	if !ok {
		return false
	}

	payload := map[string]interface{}{
		"content": text,
	}
	if opts != nil && opts.Metadata != nil {
		payload["embeds"] = []map[string]interface{}{
			{
				"description": text,
				"timestamp":   time.Now().Format(time.RFC3339),
			},
		}
	}

	ctx, cancel := dc.sendContext(ctx)
	defer cancel()

	resp, err := dc.makeHTTPRequest(ctx, "POST", url, nil, payload)
	if err != nil {
		dc.logger.WithError(err).Error("Failed to send Discord message")
		return false
	}

	sent, _ := dc.handleHTTPResponse(resp, []int{200, 204})
	return sent
}

// ReceiveMessages always returns empty; Discord webhooks cannot be polled
func (dc *DiscordConnection) ReceiveMessages(ctx context.Context, opts *ReceiveOptions) []Message {
	return []Message{}
}

// Describe returns diagnostic info with the webhook URL masked
func (dc *DiscordConnection) Describe(ctx context.Context) Info {
	url, _ := dc.webhookURL()
	return Info{
		ConnectionType: models.ConnectionDiscord,
		Identity:       maskTail(url),
		Connected:      dc.Connect(ctx),
		Settings:       dc.config.Settings,
	}
}
