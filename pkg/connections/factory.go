package connections

import (
	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// Factory instantiates the concrete Connection for a declarative
// configuration. It is the single extension point for new channels: adding
// one means a new implementation plus a dispatch entry here.
type Factory struct {
	logger *log.Logger
	cfg    config.ConnectionsConfig
}

// NewFactory creates a new connection factory
func NewFactory(cfg config.ConnectionsConfig, logger *log.Logger) *Factory {
	return &Factory{
		logger: logger,
		cfg:    cfg,
	}
}

// Create dispatches on the connection type. Unrecognized types fail fast
// with a validation error; there is no silent fallback.
func (f *Factory) Create(cc models.ConnectionConfig) (Connection, error) {
	switch cc.ConnectionType {
	case models.ConnectionTelegram:
		return NewTelegramConnection(cc, f.logger, f.cfg), nil
	case models.ConnectionWebhook:
		return NewWebhookConnection(cc, f.logger, f.cfg), nil
	case models.ConnectionDiscord:
		return NewDiscordConnection(cc, f.logger, f.cfg), nil
	case models.ConnectionSlack:
		return NewSlackConnection(cc, f.logger, f.cfg), nil
	default:
		return nil, models.NewValidationError("connection_type",
			"unsupported connection type: "+string(cc.ConnectionType))
	}
}

// TypeInfo describes one supported channel type for configuration tooling
type TypeInfo struct {
	Type                models.ConnectionType `json:"type"`
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	RequiredCredentials []string              `json:"required_credentials"`
	OptionalSettings    []string              `json:"optional_settings"`
}

// AvailableTypes lists all supported channel types with their required
// credential keys and optional setting keys. Metadata only.
func (f *Factory) AvailableTypes() []TypeInfo {
	return []TypeInfo{
		{
			Type:                models.ConnectionTelegram,
			Name:                "Telegram Bot",
			Description:         "Send messages to Telegram channels and groups",
			RequiredCredentials: []string{"bot_token", "chat_id"},
			OptionalSettings:    []string{"parse_mode", "disable_web_page_preview", "max_message_length"},
		},
		{
			Type:                models.ConnectionWebhook,
			Name:                "Webhook",
			Description:         "Send messages to any webhook endpoint",
			RequiredCredentials: []string{"api_key"},
			OptionalSettings:    []string{"timeout", "retry_attempts"},
		},
		{
			Type:                models.ConnectionDiscord,
			Name:                "Discord",
			Description:         "Send messages to Discord channels via webhooks",
			RequiredCredentials: []string{"webhook_url"},
			OptionalSettings:    []string{},
		},
		{
			Type:                models.ConnectionSlack,
			Name:                "Slack",
			Description:         "Send messages to Slack channels via incoming webhooks",
			RequiredCredentials: []string{"webhook_url"},
			OptionalSettings:    []string{},
		},
	}
}
