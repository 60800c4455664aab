package connections

import (
	"context"
	"strings"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// SlackConnection posts to a Slack incoming webhook. The webhook URL comes
// from the webhook_url credential, falling back to the endpoint. Slack
// incoming webhooks are send-only.
type SlackConnection struct {
	*BaseConnection
	config models.ConnectionConfig
}

// NewSlackConnection creates a new Slack connection
func NewSlackConnection(cfg models.ConnectionConfig, logger *log.Logger, connCfg config.ConnectionsConfig) *SlackConnection {
	return &SlackConnection{
		BaseConnection: NewBaseConnection("slack", logger, connCfg),
		config:         cfg,
	}
}

func (sc *SlackConnection) webhookURL() (string, bool) {
	url := sc.config.Credentials["webhook_url"]
	if url == "" {
		url = sc.config.Endpoint
	}
	if url == "" {
		sc.logValidation(models.NewValidationError("credentials.webhook_url", "is required for slack"))
		return "", false
	}
	return url, true
}

// Connect checks the webhook URL shape. Slack incoming webhooks reject
// probe requests, so no network call is made.
func (sc *SlackConnection) Connect(ctx context.Context) bool {
	url, ok := sc.webhookURL()
	if !ok {
		return false
	}

	if !strings.HasPrefix(url, "https://hooks.slack.com/") {
		sc.logger.WithField("url", maskTail(url)).Error("Slack webhook URL has unexpected shape")
		return false
	}
	return true
}

// SendMessage posts one message as webhook text
func (sc *SlackConnection) SendMessage(ctx context.Context, text string, opts *SendOptions) bool {
	url, ok := sc.webhookURL()
	if !ok {
		return false
	}

	payload := map[string]interface{}{
		"text": text,
	}

	ctx, cancel := sc.sendContext(ctx)
	defer cancel()

	resp, err := sc.makeHTTPRequest(ctx, "POST", url, nil, payload)
	if err != nil {
		sc.logger.WithError(err).Error("Failed to send Slack message")
		return false
	}

	sent, _ := sc.handleHTTPResponse(resp, []int{200})
	return sent
}

// ReceiveMessages always returns empty; Slack incoming webhooks cannot be
// polled
func (sc *SlackConnection) ReceiveMessages(ctx context.Context, opts *ReceiveOptions) []Message {
	return []Message{}
}

// Describe returns diagnostic info with the webhook URL masked
func (sc *SlackConnection) Describe(ctx context.Context) Info {
	url, _ := sc.webhookURL()
	return Info{
		ConnectionType: models.ConnectionSlack,
		Identity:       maskTail(url),
		Connected:      sc.Connect(ctx),
		Settings:       sc.config.Settings,
	}
}
