package models

import (
	"time"
)

// RunStatus enum
type RunStatus string

const (
	RunSuccess   RunStatus = "success"
	RunError     RunStatus = "error"
	RunTimeout   RunStatus = "timeout"
	RunCancelled RunStatus = "cancelled"
)

// Valid reports whether the run status is a known outcome
func (s RunStatus) Valid() bool {
	switch s {
	case RunSuccess, RunError, RunTimeout, RunCancelled:
		return true
	}
	return false
}

// BotRun is one discrete execution record for a bot. Rows are immutable
// once recorded; they are only inserted and read.
type BotRun struct {
	ID    string `gorm:"primaryKey" json:"id"`
	BotID string `gorm:"not null;index" json:"bot_id"`

	RunTime   time.Time `gorm:"index" json:"run_time"`
	Processed int       `gorm:"default:0" json:"processed"`
	Posted    int       `gorm:"default:0" json:"posted"`
	Duration  float64   `gorm:"default:0" json:"duration"` // seconds

	Status       RunStatus `gorm:"default:'success'" json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Metadata     JSON      `gorm:"type:json" json:"metadata,omitempty"`
}

// Validate checks structural requirements before insertion
func (r *BotRun) Validate() error {
	if r.BotID == "" {
		return NewValidationError("bot_id", "is required")
	}
	if !r.Status.Valid() {
		return NewValidationError("status", "unknown run status: "+string(r.Status))
	}
	if r.Processed < 0 {
		return NewValidationError("processed", "must not be negative")
	}
	if r.Posted < 0 {
		return NewValidationError("posted", "must not be negative")
	}
	if r.Duration < 0 {
		return NewValidationError("duration", "must not be negative")
	}
	return nil
}
