package config

type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Security settings
	Security SecurityConfig `json:"security"`

	// Logging settings
	Logging LoggingConfig `json:"logging"`

	// Outbound connection settings
	Connections ConnectionsConfig `json:"connections"`
}

type ServerConfig struct {
	Host         string `json:"host" default:"localhost"`
	Port         int    `json:"port" default:"8080"`
	ReadTimeout  int    `json:"read_timeout" default:"30"`  // seconds
	WriteTimeout int    `json:"write_timeout" default:"30"` // seconds
	IdleTimeout  int    `json:"idle_timeout" default:"120"` // seconds
	GracefulStop int    `json:"graceful_stop" default:"30"` // seconds
}

type DatabaseConfig struct {
	Driver   string `json:"driver" default:"sqlite"` // sqlite, postgres
	Host     string `json:"host" default:"localhost"`
	Port     int    `json:"port" default:"5432"`
	Database string `json:"database" default:"botmanager.db"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode" default:"disable"`

	// Connection pool settings
	MaxOpenConns    int `json:"max_open_conns" default:"25"`
	MaxIdleConns    int `json:"max_idle_conns" default:"5"`
	ConnMaxLifetime int `json:"conn_max_lifetime" default:"300"` // seconds
}

type SecurityConfig struct {
	// AdminAPIKey gates the management API. When empty, auth is disabled.
	AdminAPIKey        string `json:"admin_api_key"`
	JWTSecret          string `json:"jwt_secret"`
	JWTExpirationHours int    `json:"jwt_expiration_hours" default:"24"`

	// EncryptionKey enables credentials-at-rest encryption when set.
	// Must be exactly 32 bytes for AES-256.
	EncryptionKey string `json:"encryption_key"`

	// Rate limiting
	RateLimitEnabled   bool `json:"rate_limit_enabled" default:"true"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute" default:"60"`
	RateLimitBurstSize int  `json:"rate_limit_burst_size" default:"10"`
}

type LoggingConfig struct {
	Level      string `json:"level" default:"info"`    // debug, info, warn, error
	Format     string `json:"format" default:"json"`   // json, text
	Output     string `json:"output" default:"stdout"` // stdout, file
	FilePath   string `json:"file_path" default:"logs/botmanager.log"`
	MaxSize    int    `json:"max_size" default:"100"` // MB
	MaxBackups int    `json:"max_backups" default:"3"`
	MaxAge     int    `json:"max_age" default:"28"` // days
	Compress   bool   `json:"compress" default:"true"`
}

type ConnectionsConfig struct {
	ProbeTimeout   int `json:"probe_timeout" default:"10"`   // seconds, connect/health checks
	SendTimeout    int `json:"send_timeout" default:"30"`    // seconds, message delivery
	ReceiveTimeout int `json:"receive_timeout" default:"35"` // seconds, polling reads
}
