package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamedafzali/bot-manager/pkg/models"
)

func newsService(id string) *models.Service {
	return &models.Service{
		ID:          id,
		Name:        "News Fetcher",
		ServiceType: "fetcher",
		EndpointURL: "http://fetcher.internal:9000",
		IsActive:    true,
	}
}

func TestRegisterServiceUpsert(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))

	services, err := m.ListServices("")
	require.NoError(t, err)
	require.Len(t, services, 1)
	created := services[0].CreatedAt

	// Re-registering the same id replaces fields, never duplicates
	updated := newsService("fetcher-1")
	updated.Name = "News Fetcher v2"
	updated.EndpointURL = "http://fetcher.internal:9001"
	require.NoError(t, m.RegisterService(updated))

	services, err = m.ListServices("")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "News Fetcher v2", services[0].Name)
	assert.Equal(t, "http://fetcher.internal:9001", services[0].EndpointURL)
	assert.Equal(t, created, services[0].CreatedAt)
}

func TestRegisterServiceValidation(t *testing.T) {
	m := newTestManager(t, nil)

	err := m.RegisterService(&models.Service{Name: "nameless", ServiceType: "fetcher"})
	_, ok := models.IsValidation(err)
	assert.True(t, ok)

	err = m.RegisterService(&models.Service{ID: "x", ServiceType: "fetcher"})
	_, ok = models.IsValidation(err)
	assert.True(t, ok)
}

func TestPingService(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))

	services, err := m.ListServices("")
	require.NoError(t, err)
	require.Nil(t, services[0].LastPing)

	require.NoError(t, m.PingService("fetcher-1"))

	services, err = m.ListServices("")
	require.NoError(t, err)
	require.NotNil(t, services[0].LastPing)
	first := *services[0].LastPing

	// Pinging again only moves the timestamp forward
	require.NoError(t, m.PingService("fetcher-1"))

	services, err = m.ListServices("")
	require.NoError(t, err)
	require.NotNil(t, services[0].LastPing)
	assert.False(t, services[0].LastPing.Before(first))
}

func TestPingServiceUnknown(t *testing.T) {
	m := newTestManager(t, nil)

	err := m.PingService("no-such-service")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// A failed ping never registers anything
	services, listErr := m.ListServices("")
	require.NoError(t, listErr)
	assert.Empty(t, services)
}

func TestRegisterPreservesLastPing(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))
	require.NoError(t, m.PingService("fetcher-1"))

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))

	services, err := m.ListServices("")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.NotNil(t, services[0].LastPing)
}

func TestListServicesFilter(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))

	analyzer := newsService("analyzer-1")
	analyzer.ServiceType = "analyzer"
	require.NoError(t, m.RegisterService(analyzer))

	all, err := m.ListServices("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fetchers, err := m.ListServices("fetcher")
	require.NoError(t, err)
	require.Len(t, fetchers, 1)
	assert.Equal(t, "fetcher-1", fetchers[0].ID)
}

func TestDeleteService(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterService(newsService("fetcher-1")))
	require.NoError(t, m.DeleteService("fetcher-1"))

	services, err := m.ListServices("")
	require.NoError(t, err)
	assert.Empty(t, services)

	assert.ErrorIs(t, m.DeleteService("fetcher-1"), models.ErrNotFound)
}
