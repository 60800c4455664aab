package models

import (
	"time"
)

// Service is a directory entry for an external collaborating service.
// It is independent of bots and runs; a flat registry keyed by id.
type Service struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name        string `gorm:"not null" json:"name"`
	ServiceType string `gorm:"not null;index" json:"service_type"`
	EndpointURL string `gorm:"not null" json:"endpoint_url"`
	APIKey      string `json:"api_key,omitempty"`

	IsActive bool       `gorm:"default:true" json:"is_active"`
	LastPing *time.Time `json:"last_ping,omitempty"`
}

// Validate checks structural requirements before registration
func (s *Service) Validate() error {
	if s.ID == "" {
		return NewValidationError("id", "is required")
	}
	if s.Name == "" {
		return NewValidationError("name", "is required")
	}
	if s.ServiceType == "" {
		return NewValidationError("service_type", "is required")
	}
	if s.EndpointURL == "" {
		return NewValidationError("endpoint_url", "is required")
	}
	return nil
}
