package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

func testBot() *models.Bot {
	return &models.Bot{
		ID:                  "bot-1",
		Name:                "Hamburg News",
		CityName:            "Hamburg",
		Language:            "de",
		PostIntervalMinutes: 30,
		MaxPostsPerRun:      5,
		Status:              models.StatusIdle,
	}
}

func route(t *testing.T, bot *models.Bot, text string) (string, bool) {
	t.Helper()
	r := New(bot, log.NewNop())
	return r.Route(connections.Message{Text: text})
}

func TestRouteStart(t *testing.T) {
	reply, ok := route(t, testBot(), "/start")
	require.True(t, ok)
	assert.Contains(t, reply, "Hamburg News")
	assert.Contains(t, reply, "Hamburg")
}

func TestRouteHelp(t *testing.T) {
	reply, ok := route(t, testBot(), "/help")
	require.True(t, ok)
	assert.Contains(t, reply, "/start")
	assert.Contains(t, reply, "/status")
	assert.Contains(t, reply, "/info")
}

func TestRouteStatus(t *testing.T) {
	bot := testBot()
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bot.Status = models.StatusRunning
	bot.LastRun = &last
	bot.TotalPosts = 42

	reply, ok := route(t, bot, "/status")
	require.True(t, ok)
	assert.Contains(t, reply, "running")
	assert.Contains(t, reply, "2026-03-01 12:00")
	assert.Contains(t, reply, "Language: de")
	assert.Contains(t, reply, "42")
}

func TestRouteStatusShowsErrorDetail(t *testing.T) {
	bot := testBot()
	bot.Status = models.StatusError
	bot.ErrorMessage = "token rejected"

	reply, ok := route(t, bot, "/status")
	require.True(t, ok)
	assert.Contains(t, reply, "error")
	assert.Contains(t, reply, "token rejected")
}

func TestRouteInfo(t *testing.T) {
	reply, ok := route(t, testBot(), "/info")
	require.True(t, ok)
	assert.Contains(t, reply, "Hamburg News")
	assert.Contains(t, reply, "de")
	assert.Contains(t, reply, "30 minutes")
	assert.Contains(t, reply, "5")
}

func TestRouteCaseInsensitive(t *testing.T) {
	for _, text := range []string{"/START", "/Start", "  /start  "} {
		reply, ok := route(t, testBot(), text)
		require.True(t, ok, text)
		assert.Contains(t, reply, "Hamburg News")
	}
}

func TestRouteUnknownCommand(t *testing.T) {
	reply, ok := route(t, testBot(), "/frobnicate")
	require.True(t, ok)
	assert.Contains(t, reply, "Unknown command")
}

func TestRouteGreeting(t *testing.T) {
	for _, text := range []string{"hello", "Hi there", "hey"} {
		reply, ok := route(t, testBot(), text)
		require.True(t, ok, text)
		assert.Contains(t, reply, "Hamburg News")
	}
}

func TestRoutePlainTextNoReply(t *testing.T) {
	for _, text := range []string{"what is the weather", "ok thanks", "", "   "} {
		reply, ok := route(t, testBot(), text)
		assert.False(t, ok, text)
		assert.Empty(t, reply)
	}
}

func TestRouteDefaultCityPlaceholder(t *testing.T) {
	bot := testBot()
	bot.CityName = ""

	reply, ok := route(t, bot, "/start")
	require.True(t, ok)
	assert.Contains(t, reply, "your city")
}
