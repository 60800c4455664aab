package models

import (
	"time"
)

// ConnectionType enum
type ConnectionType string

const (
	ConnectionTelegram ConnectionType = "telegram"
	ConnectionWebhook  ConnectionType = "webhook"
	ConnectionDiscord  ConnectionType = "discord"
	ConnectionSlack    ConnectionType = "slack"
)

// Valid reports whether the connection type is a known channel
func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionTelegram, ConnectionWebhook, ConnectionDiscord, ConnectionSlack:
		return true
	}
	return false
}

// BotStatus enum
type BotStatus string

const (
	StatusIdle      BotStatus = "idle"
	StatusRunning   BotStatus = "running"
	StatusConnected BotStatus = "connected"
	StatusError     BotStatus = "error"
	StatusDisabled  BotStatus = "disabled"
)

// Valid reports whether the status is a known state
func (s BotStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusConnected, StatusError, StatusDisabled:
		return true
	}
	return false
}

// ConnectionConfig declares a bot's outbound channel: its type, endpoint,
// credentials, and free-form behavioral settings. Credentials are opaque to
// the registry; each channel implementation validates its own required keys
// at first use.
type ConnectionConfig struct {
	ConnectionType ConnectionType `json:"connection_type"`
	Endpoint       string         `json:"endpoint"`
	Credentials    StringMap      `json:"credentials"`
	Settings       JSON           `json:"settings"`
}

// BotConfig is a bot's full replaceable configuration. A bot owns exactly
// one connection at a time.
type BotConfig struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Connection  ConnectionConfig `json:"connection"`

	CityName            string `json:"city_name,omitempty"`
	Language            string `json:"language,omitempty"`
	PostIntervalMinutes int    `json:"post_interval_minutes,omitempty"`
	MaxPostsPerRun      int    `json:"max_posts_per_run,omitempty"`

	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
	NewsAPIKey   string `json:"newsapi_key,omitempty"`

	IsActive bool `json:"is_active"`
}

// ApplyDefaults fills zero-valued operational fields
func (c *BotConfig) ApplyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.PostIntervalMinutes == 0 {
		c.PostIntervalMinutes = 30
	}
	if c.MaxPostsPerRun == 0 {
		c.MaxPostsPerRun = 5
	}
}

// Validate checks structural requirements. It runs before any persistence
// attempt; channel credential keys are deliberately not checked here.
func (c *BotConfig) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}
	if c.Connection.ConnectionType == "" {
		return NewValidationError("connection.connection_type", "is required")
	}
	if !c.Connection.ConnectionType.Valid() {
		return NewValidationError("connection.connection_type",
			"unsupported connection type: "+string(c.Connection.ConnectionType))
	}
	if c.Connection.Endpoint == "" {
		return NewValidationError("connection.endpoint", "is required")
	}
	if c.PostIntervalMinutes < 0 {
		return NewValidationError("post_interval_minutes", "must not be negative")
	}
	if c.MaxPostsPerRun < 0 {
		return NewValidationError("max_posts_per_run", "must not be negative")
	}
	return nil
}

// Bot represents a managed notification bot bound to one outbound channel.
// Config fields are flattened into the bots table.
type Bot struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`

	CityName            string `json:"city_name,omitempty"`
	Language            string `gorm:"default:'en'" json:"language"`
	PostIntervalMinutes int    `gorm:"default:30" json:"post_interval_minutes"`
	MaxPostsPerRun      int    `gorm:"default:5" json:"max_posts_per_run"`

	ConnectionType ConnectionType `gorm:"not null;index" json:"connection_type"`
	Endpoint       string         `gorm:"not null" json:"endpoint"`
	Credentials    StringMap      `gorm:"type:json" json:"credentials,omitempty"`
	Settings       JSON           `gorm:"type:json" json:"settings,omitempty"`

	// Explicit column names: the default naming strategy would split the
	// acronyms into open_ai_api_key / news_api_key.
	OpenAIAPIKey string `gorm:"column:openai_api_key" json:"openai_api_key,omitempty"`
	NewsAPIKey   string `gorm:"column:newsapi_key" json:"newsapi_key,omitempty"`

	IsActive     bool       `gorm:"default:true" json:"is_active"`
	Status       BotStatus  `gorm:"default:'idle';index" json:"status"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	TotalPosts   int        `gorm:"default:0" json:"total_posts"`
	ErrorMessage string     `json:"error_message,omitempty"`

	// Relationships
	Runs []BotRun `gorm:"foreignKey:BotID" json:"runs,omitempty"`
}

// Config reassembles the bot's flattened configuration
func (b *Bot) Config() BotConfig {
	return BotConfig{
		Name:        b.Name,
		Description: b.Description,
		Connection: ConnectionConfig{
			ConnectionType: b.ConnectionType,
			Endpoint:       b.Endpoint,
			Credentials:    b.Credentials,
			Settings:       b.Settings,
		},
		CityName:            b.CityName,
		Language:            b.Language,
		PostIntervalMinutes: b.PostIntervalMinutes,
		MaxPostsPerRun:      b.MaxPostsPerRun,
		OpenAIAPIKey:        b.OpenAIAPIKey,
		NewsAPIKey:          b.NewsAPIKey,
		IsActive:            b.IsActive,
	}
}

// ApplyConfig replaces the bot's configuration wholesale. Status, run
// statistics, and timestamps are untouched.
func (b *Bot) ApplyConfig(cfg BotConfig) {
	b.Name = cfg.Name
	b.Description = cfg.Description
	b.ConnectionType = cfg.Connection.ConnectionType
	b.Endpoint = cfg.Connection.Endpoint
	b.Credentials = cfg.Connection.Credentials
	b.Settings = cfg.Connection.Settings
	b.CityName = cfg.CityName
	b.Language = cfg.Language
	b.PostIntervalMinutes = cfg.PostIntervalMinutes
	b.MaxPostsPerRun = cfg.MaxPostsPerRun
	b.OpenAIAPIKey = cfg.OpenAIAPIKey
	b.NewsAPIKey = cfg.NewsAPIKey
	b.IsActive = cfg.IsActive
}
