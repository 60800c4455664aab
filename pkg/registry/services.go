package registry

import (
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// RegisterService upserts a service by id: new ids insert, existing ids
// have their descriptive fields replaced while created_at and last_ping
// survive. Registration is idempotent.
func (m *Manager) RegisterService(svc *models.Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}

	if err := m.repo.UpsertService(svc); err != nil {
		return &models.PersistenceError{Op: "register service", Err: err}
	}

	m.logger.LogService(svc.ID, "register", true)
	return nil
}

// ListServices returns registered services, optionally filtered by type
func (m *Manager) ListServices(serviceType string) ([]models.Service, error) {
	services, err := m.repo.ListServices(serviceType)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list services", Err: err}
	}
	return services, nil
}

// PingService stamps last_ping for a registered service. Pinging an
// unknown id is ErrNotFound, never an implicit registration.
func (m *Manager) PingService(id string) error {
	rows, err := m.repo.TouchServicePing(id)
	if err != nil {
		return &models.PersistenceError{Op: "ping service", Err: err}
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	m.logger.LogService(id, "ping", true)
	return nil
}

// DeleteService removes a service from the directory
func (m *Manager) DeleteService(id string) error {
	rows, err := m.repo.DeleteService(id)
	if err != nil {
		return &models.PersistenceError{Op: "delete service", Err: err}
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	m.logger.LogService(id, "delete", true)
	return nil
}
