// Package router implements a command-reply message router on top of a
// managed bot. It holds no state beyond the bot it answers for: each
// incoming message is matched against a small command set and answered
// from the bot's current configuration and status.
package router

import (
	"fmt"
	"strings"

	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
)

// Router matches inbound messages to canned replies for one bot
type Router struct {
	bot    *models.Bot
	logger *log.Logger
}

// New creates a router answering for the given bot
func New(bot *models.Bot, logger *log.Logger) *Router {
	return &Router{bot: bot, logger: logger}
}

// Route produces a reply for one inbound message. Commands are matched
// case-insensitively on the first token. The second return value reports
// whether the message produced a reply at all; unrecognized plain text
// yields none.
func (r *Router) Route(msg connections.Message) (string, bool) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return "", false
	}

	token := strings.ToLower(strings.Fields(text)[0])

	if strings.HasPrefix(token, "/") {
		reply := r.handleCommand(token)
		r.logger.WithFields(log.Fields{
			"bot_id":  r.bot.ID,
			"command": token,
		}).Debug("Routed command")
		return reply, true
	}

	switch token {
	case "hello", "hi", "hey":
		return fmt.Sprintf("Hello! I'm %s. Send /help to see what I can do.", r.bot.Name), true
	}

	return "", false
}

func (r *Router) handleCommand(cmd string) string {
	switch cmd {
	case "/start":
		return fmt.Sprintf("Welcome! I'm %s, your news bot for %s. Send /help for available commands.",
			r.bot.Name, r.displayCity())
	case "/help":
		return "Available commands:\n" +
			"/start - introduction\n" +
			"/status - current bot status\n" +
			"/info - bot configuration\n" +
			"/help - this message"
	case "/status":
		status := fmt.Sprintf("Status: %s", r.bot.Status)
		if r.bot.Status == models.StatusError && r.bot.ErrorMessage != "" {
			status += fmt.Sprintf(" (%s)", r.bot.ErrorMessage)
		}
		if r.bot.LastRun != nil {
			status += fmt.Sprintf("\nLast run: %s", r.bot.LastRun.Format("2006-01-02 15:04 UTC"))
		}
		status += fmt.Sprintf("\nLanguage: %s", r.bot.Language)
		status += fmt.Sprintf("\nTotal posts: %d", r.bot.TotalPosts)
		return status
	case "/info":
		return fmt.Sprintf("Name: %s\nCity: %s\nLanguage: %s\nPost interval: %d minutes\nMax posts per run: %d",
			r.bot.Name, r.displayCity(), r.bot.Language,
			r.bot.PostIntervalMinutes, r.bot.MaxPostsPerRun)
	default:
		return "Unknown command. Send /help for available commands."
	}
}

func (r *Router) displayCity() string {
	if r.bot.CityName == "" {
		return "your city"
	}
	return r.bot.CityName
}
