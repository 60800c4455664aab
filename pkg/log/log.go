package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Set format
	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	// Set output
	var output io.Writer
	switch cfg.Output {
	case "file":
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// NewNop creates a logger that discards all output, for use in tests.
func NewNop() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger}
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithField adds a single field to log entry
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError adds an error field to log entry
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Request logging helpers
func (l *Logger) LogRequest(method, path, userAgent, clientIP string, statusCode int, duration int64) {
	l.WithFields(Fields{
		"method":      method,
		"path":        path,
		"user_agent":  userAgent,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration,
		"type":        "request",
	}).Info("HTTP request")
}

// LogBot logs a bot lifecycle event
func (l *Logger) LogBot(botID string, action string, success bool, detail string) {
	entry := l.WithFields(Fields{
		"bot_id":  botID,
		"action":  action,
		"success": success,
		"type":    "bot",
	})

	if detail != "" {
		entry = entry.WithField("detail", detail)
	}

	if success {
		entry.Info("Bot event")
	} else {
		entry.Error("Bot event failed")
	}
}

// LogRun logs a run-accounting event
func (l *Logger) LogRun(runID, botID string, status string, processed, posted int, duration float64) {
	l.WithFields(Fields{
		"run_id":    runID,
		"bot_id":    botID,
		"status":    status,
		"processed": processed,
		"posted":    posted,
		"duration":  duration,
		"type":      "run",
	}).Info("Run recorded")
}

// LogConnection logs a channel connection event
func (l *Logger) LogConnection(connType string, action string, success bool, detail string) {
	entry := l.WithFields(Fields{
		"connection": connType,
		"action":     action,
		"success":    success,
		"type":       "connection",
	})

	if detail != "" {
		entry = entry.WithField("detail", detail)
	}

	if success {
		entry.Debug("Connection event")
	} else {
		entry.Error("Connection event failed")
	}
}

// LogService logs a service directory event
func (l *Logger) LogService(serviceID string, action string, success bool) {
	entry := l.WithFields(Fields{
		"service_id": serviceID,
		"action":     action,
		"success":    success,
		"type":       "service",
	})

	if success {
		entry.Info("Service event")
	} else {
		entry.Warn("Service event failed")
	}
}

// LogSecurity logs a security-relevant event
func (l *Logger) LogSecurity(event string, ip string, details map[string]interface{}) {
	fields := Fields{
		"event": event,
		"ip":    ip,
		"type":  "security",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Warn("Security event")
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the default logger
func Init(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}

// Convenience functions for global logger
func Debug(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debug(args...)
	}
}

func Info(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(args...)
	}
}

func Warn(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(args...)
	}
}

func Error(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(args...)
	}
}

func Fatal(args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Fatal(args...)
	}
}

func WithFields(fields Fields) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithError(err error) *logrus.Entry {
	if defaultLogger != nil {
		return defaultLogger.WithError(err)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
