package webserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamedafzali/bot-manager/pkg/config"
	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/db"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/registry"
)

func newTestServer(t *testing.T, adminKey string) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Database: config.DatabaseConfig{
			Driver:          "sqlite",
			Database:        filepath.Join(t.TempDir(), "bots.db"),
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 300,
		},
		Security: config.SecurityConfig{
			AdminAPIKey:        adminKey,
			JWTSecret:          "test-jwt-secret",
			JWTExpirationHours: 1,
		},
		Logging:     config.LoggingConfig{Level: "error"},
		Connections: config.ConnectionsConfig{ProbeTimeout: 2, SendTimeout: 2, ReceiveTimeout: 2},
	}

	database, err := db.New(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate())

	logger := log.NewNop()
	factory := connections.NewFactory(cfg.Connections, logger)
	reg := registry.NewManager(db.NewRepository(database), factory, logger, nil)

	server, err := New(cfg, database, reg, logger)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func sampleBot() map[string]interface{} {
	return map[string]interface{}{
		"name":      "hamburg-bot",
		"city_name": "Hamburg",
		"is_active": true,
		"connection": map[string]interface{}{
			"connection_type": "telegram",
			"endpoint":        "https://api.telegram.org/bot123:abc",
			"credentials":     map[string]string{"bot_token": "123:abc", "chat_id": "@news"},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeData(t, rec)["status"])
}

func TestBotCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	// Create
	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", sampleBot())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeData(t, rec)
	botID, _ := created["id"].(string)
	require.NotEmpty(t, botID)
	assert.Equal(t, "idle", created["status"])

	// Read
	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots/"+botID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hamburg-bot", decodeData(t, rec)["name"])

	// Update (full replace)
	update := sampleBot()
	update["name"] = "hamburg-bot-v2"
	update["is_active"] = false
	rec = doJSON(t, s, http.MethodPut, "/api/v1/bots/"+botID, update)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeData(t, rec)
	assert.Equal(t, "hamburg-bot-v2", updated["name"])
	assert.Equal(t, false, updated["is_active"])

	// Delete
	rec = doJSON(t, s, http.MethodDelete, "/api/v1/bots/"+botID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots/"+botID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBotValidationMapsTo400(t *testing.T) {
	s := newTestServer(t, "")

	bad := sampleBot()
	bad["name"] = ""
	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownBotMapsTo404(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/bots/no-such-bot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/v1/bots/no-such-bot/status",
		map[string]interface{}{"status": "running"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordRunOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", sampleBot())
	require.Equal(t, http.StatusCreated, rec.Code)
	botID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/bots/"+botID+"/runs", map[string]interface{}{
		"status":    "success",
		"processed": 4,
		"posted":    3,
		"duration":  1.2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots/"+botID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeData(t, rec)["total_posts"])

	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots/"+botID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData(t, rec)
	assert.Equal(t, float64(1), stats["total_runs"])
	assert.Equal(t, float64(1), stats["successful_runs"])
}

func TestRunBotOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", sampleBot())
	require.Equal(t, http.StatusCreated, rec.Code)
	botID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/bots/"+botID+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots/"+botID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decodeData(t, rec)["status"])

	// Deactivated bots cannot be triggered
	update := sampleBot()
	update["is_active"] = false
	rec = doJSON(t, s, http.MethodPut, "/api/v1/bots/"+botID, update)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/bots/"+botID+"/run", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouteInboundMessage(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", sampleBot())
	require.Equal(t, http.StatusCreated, rec.Code)
	botID := decodeData(t, rec)["id"].(string)

	// Unrecognized plain text is reported unhandled and nothing is sent
	rec = doJSON(t, s, http.MethodPost, "/api/v1/bots/"+botID+"/message",
		map[string]interface{}{"text": "ok thanks"})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData(t, rec)
	assert.Equal(t, false, result["handled"])
	assert.Equal(t, false, result["sent"])
	assert.Equal(t, "", result["reply"])
}

func TestListBotsPaginated(t *testing.T) {
	s := newTestServer(t, "")

	for _, name := range []string{"bot-a", "bot-b", "bot-c"} {
		bot := sampleBot()
		bot["name"] = name
		rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", bot)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/bots?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                     `json:"success"`
		Data    []map[string]interface{} `json:"data"`
		Meta    struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalCount int `json:"total_count"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, 2, envelope.Meta.Page)
	assert.Equal(t, 3, envelope.Meta.TotalCount)
	assert.Equal(t, 2, envelope.Meta.TotalPages)

	// A page past the end is empty, not an error
	rec = doJSON(t, s, http.MethodGet, "/api/v1/bots?page=9&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPollRepliesKeepNumericChatID(t *testing.T) {
	s := newTestServer(t, "")

	var sentChatID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/getUpdates":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":1,"message":{"text":"/start","chat":{"id":123456789},"date":1}}]}`))
		case "/sendMessage":
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			sentChatID, _ = payload["chat_id"].(string)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	bot := sampleBot()
	bot["connection"] = map[string]interface{}{
		"connection_type": "telegram",
		"endpoint":        upstream.URL,
		"credentials":     map[string]string{"bot_token": "123:abc"},
	}
	rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", bot)
	require.Equal(t, http.StatusCreated, rec.Code)
	botID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/bots/"+botID+"/poll", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeData(t, rec)
	assert.Equal(t, float64(1), result["received"])
	assert.Equal(t, float64(1), result["replied"])

	// Chat IDs decode as float64; the reply must carry the plain decimal
	// form, not scientific notation.
	assert.Equal(t, "123456789", sentChatID)
}

func TestConnectionTypesEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/connection-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 4)
}

func TestServiceDirectoryOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/services", map[string]interface{}{
		"id":           "fetcher-1",
		"name":         "News Fetcher",
		"service_type": "fetcher",
		"endpoint_url": "http://fetcher.internal:9000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/services/fetcher-1/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/services/ghost/ping", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/services?type=fetcher", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/services/fetcher-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequiredWhenAdminKeySet(t *testing.T) {
	s := newTestServer(t, "admin-key-123")

	// No token: rejected
	rec := doJSON(t, s, http.MethodGet, "/api/v1/bots", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong API key: no token issued
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/token", map[string]interface{}{
		"api_key":       "wrong",
		"operator_name": "ops",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct API key: token issued and accepted
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/token", map[string]interface{}{
		"api_key":       "admin-key-123",
		"operator_name": "ops",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeData(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bots", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authed := httptest.NewRecorder()
	s.router.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestAuthDisabledWithoutAdminKey(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/bots", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The token endpoint is a 404 when auth is off
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auth/token", map[string]interface{}{
		"api_key":       "anything",
		"operator_name": "ops",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t, "")

	for _, name := range []string{"bot-a", "bot-b"} {
		bot := sampleBot()
		bot["name"] = name
		rec := doJSON(t, s, http.MethodPost, "/api/v1/bots", bot)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData(t, rec)
	assert.Equal(t, float64(2), stats["total_bots"])
	assert.Equal(t, float64(2), stats["active_bots"])
}
