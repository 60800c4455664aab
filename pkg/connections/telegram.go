package connections

import (
	"context"
	"fmt"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// TelegramConnection talks to the Telegram Bot API. The configured endpoint
// is the bot-scoped base URL (https://api.telegram.org/bot<token>).
// Required credentials: bot_token, chat_id.
type TelegramConnection struct {
	*BaseConnection
	config models.ConnectionConfig
}

// NewTelegramConnection creates a new Telegram connection
func NewTelegramConnection(cfg models.ConnectionConfig, logger *log.Logger, connCfg config.ConnectionsConfig) *TelegramConnection {
	return &TelegramConnection{
		BaseConnection: NewBaseConnection("telegram", logger, connCfg),
		config:         cfg,
	}
}

// telegramResponse is the common Bot API envelope
type telegramResponse struct {
	Ok          bool                     `json:"ok"`
	Description string                   `json:"description"`
	Result      []map[string]interface{} `json:"result"`
}

// Connect probes the bot identity endpoint
func (tc *TelegramConnection) Connect(ctx context.Context) bool {
	if tc.config.Credentials["bot_token"] == "" {
		tc.logValidation(models.NewValidationError("credentials.bot_token", "is required for telegram"))
		return false
	}

	ctx, cancel := tc.probeContext(ctx)
	defer cancel()

	resp, err := tc.makeHTTPRequest(ctx, "GET", tc.config.Endpoint+"/getMe", nil, nil)
	if err != nil {
		tc.logger.WithError(err).Error("Telegram connection test failed")
		return false
	}

	ok, _ := tc.handleHTTPResponse(resp, []int{200})
	return ok
}

// SendMessage posts one message to the configured chat. The options may
// override the target chat; with no default chat id and no override the
// call fails without touching the network.
func (tc *TelegramConnection) SendMessage(ctx context.Context, text string, opts *SendOptions) bool {
	if tc.config.Credentials["bot_token"] == "" {
		tc.logValidation(models.NewValidationError("credentials.bot_token", "is required for telegram"))
		return false
	}

	chatID := tc.config.Credentials["chat_id"]
	if opts != nil && opts.ChatID != "" {
		chatID = opts.ChatID
	}
	if chatID == "" {
		tc.logValidation(models.NewValidationError("credentials.chat_id", "is required for telegram"))
		return false
	}

	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               settingString(tc.config.Settings, "parse_mode", "Markdown"),
		"disable_web_page_preview": settingBool(tc.config.Settings, "disable_web_page_preview", false),
	}

	ctx, cancel := tc.sendContext(ctx)
	defer cancel()

	resp, err := tc.makeHTTPRequest(ctx, "POST", tc.config.Endpoint+"/sendMessage", nil, payload)
	if err != nil {
		tc.logger.WithError(err).Error("Failed to send Telegram message")
		return false
	}

	// Telegram reports failures in the payload too: success needs
	// HTTP 200 and ok == true.
	if resp.StatusCode != 200 {
		_, detail := tc.handleHTTPResponse(resp, []int{200})
		tc.logger.WithField("detail", detail).Error("Telegram send rejected")
		return false
	}

	var body struct {
		Ok          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := tc.decodeJSONResponse(resp, &body); err != nil {
		tc.logger.WithError(err).Error("Failed to decode Telegram response")
		return false
	}
	if !body.Ok {
		tc.logger.WithField("description", body.Description).Error("Telegram send rejected")
		return false
	}

	return true
}

// ReceiveMessages polls getUpdates. Push delivery is the primary inbound
// path for Telegram; this exists for diagnostics and catch-up reads only.
func (tc *TelegramConnection) ReceiveMessages(ctx context.Context, opts *ReceiveOptions) []Message {
	limit := 100
	timeout := 30
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.TimeoutSeconds > 0 {
			timeout = opts.TimeoutSeconds
		}
	}

	ctx, cancel := tc.receiveContext(ctx)
	defer cancel()

	url := fmt.Sprintf("%s/getUpdates?timeout=%d&limit=%d", tc.config.Endpoint, timeout, limit)
	resp, err := tc.makeHTTPRequest(ctx, "GET", url, nil, nil)
	if err != nil {
		tc.logger.WithError(err).Error("Failed to receive Telegram messages")
		return []Message{}
	}

	if resp.StatusCode != 200 {
		tc.handleHTTPResponse(resp, []int{200})
		return []Message{}
	}

	var body telegramResponse
	if err := tc.decodeJSONResponse(resp, &body); err != nil {
		tc.logger.WithError(err).Error("Failed to decode Telegram updates")
		return []Message{}
	}

	return tc.formatUpdates(body.Result)
}

// formatUpdates normalizes Telegram updates into Messages
func (tc *TelegramConnection) formatUpdates(updates []map[string]interface{}) []Message {
	formatted := make([]Message, 0, len(updates))
	for _, update := range updates {
		raw, ok := update["message"].(map[string]interface{})
		if !ok {
			continue
		}

		msg := Message{Raw: raw}
		if id, ok := update["update_id"].(float64); ok {
			msg.ID = int64(id)
		}
		if text, ok := raw["text"].(string); ok {
			msg.Text = text
		}
		if from, ok := raw["from"].(map[string]interface{}); ok {
			msg.From = from
		}
		if chat, ok := raw["chat"].(map[string]interface{}); ok {
			msg.Chat = chat
		}
		if date, ok := raw["date"].(float64); ok {
			msg.Date = int64(date)
		}
		formatted = append(formatted, msg)
	}
	return formatted
}

// Describe returns diagnostic info with the chat id masked
func (tc *TelegramConnection) Describe(ctx context.Context) Info {
	return Info{
		ConnectionType: models.ConnectionTelegram,
		Identity:       maskTail(tc.config.Credentials["chat_id"]),
		Connected:      tc.Connect(ctx),
		Settings:       tc.config.Settings,
	}
}
