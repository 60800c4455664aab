package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/models"
	"github.com/hamedafzali/bot-manager/pkg/router"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// respondError maps registry errors onto HTTP statuses: validation
// failures are client errors, missing entities are 404, anything else is
// a storage-level failure.
func (s *Server) respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(vErr.Error()))
		return
	}
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Not found"))
		return
	}

	s.logger.WithError(err).Error("Registry operation failed")
	c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
}

// getBots returns a page of bots, optionally filtered to active ones
func (s *Server) getBots(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	bots, err := s.registry.ListBots(activeOnly)
	if err != nil {
		s.respondError(c, err)
		return
	}

	pagination := utils.NewPagination(page, limit, len(bots))
	start := pagination.GetOffset()
	if start > len(bots) {
		start = len(bots)
	}
	end := start + pagination.Limit
	if end > len(bots) {
		end = len(bots)
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(bots[start:end], pagination, "Bots retrieved successfully"))
}

// createBot creates a new bot from a full configuration
func (s *Server) createBot(c *gin.Context) {
	var cfg models.BotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	cfg.Name = s.validator.SanitizeInput(cfg.Name)
	cfg.Description = s.validator.SanitizeInput(cfg.Description)

	bot, err := s.registry.CreateBot(cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(bot, "Bot created successfully"))
}

// getBot returns a specific bot by ID
func (s *Server) getBot(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(bot, "Bot retrieved successfully"))
}

// updateBot replaces a bot's configuration wholesale
func (s *Server) updateBot(c *gin.Context) {
	var cfg models.BotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	cfg.Name = s.validator.SanitizeInput(cfg.Name)
	cfg.Description = s.validator.SanitizeInput(cfg.Description)

	id := c.Param("id")
	if err := s.registry.UpdateBot(id, cfg); err != nil {
		s.respondError(c, err)
		return
	}

	bot, err := s.registry.GetBot(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(bot, "Bot updated successfully"))
}

// deleteBot removes a bot and its run history
func (s *Server) deleteBot(c *gin.Context) {
	if err := s.registry.DeleteBot(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Bot deleted successfully"))
}

// UpdateStatusRequest represents a bot status transition
type UpdateStatusRequest struct {
	Status       models.BotStatus `json:"status" binding:"required"`
	ErrorMessage string           `json:"error_message"`
}

// updateBotStatus sets a bot's operational status
func (s *Server) updateBotStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if err := s.registry.UpdateBotStatus(c.Param("id"), req.Status, req.ErrorMessage); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Status updated successfully"))
}

// testBotConnection probes the bot's channel and records the outcome
func (s *Server) testBotConnection(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	ok := s.registry.TestConnection(c.Request.Context(), bot)

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"bot_id":    bot.ID,
		"connected": ok,
	}, "Connection test completed"))
}

// SendMessageRequest represents a manual message delivery
type SendMessageRequest struct {
	Message  string                 `json:"message" binding:"required"`
	ChatID   string                 `json:"chat_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

// sendBotMessage delivers one message through the bot's channel. Manual
// sends bypass the active flag and do not create run records.
func (s *Server) sendBotMessage(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	ok := s.registry.SendMessage(c.Request.Context(), bot, req.Message, &connections.SendOptions{
		ChatID:   req.ChatID,
		Metadata: req.Metadata,
	})
	if !ok {
		c.JSON(http.StatusBadGateway, utils.NewErrorResponse("Message delivery failed"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"bot_id": bot.ID,
		"sent":   true,
	}, "Message sent successfully"))
}

// getBotConnection returns diagnostic info about the bot's channel
func (s *Server) getBotConnection(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	info, err := s.registry.DescribeConnection(c.Request.Context(), bot)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(info, "Connection info retrieved"))
}

// runBot marks a bot as running. Execution lives in an external worker;
// this only flips the status for it to pick up.
func (s *Server) runBot(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if !bot.IsActive {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Bot is not active"))
		return
	}

	if err := s.registry.UpdateBotStatus(bot.ID, models.StatusRunning, ""); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"bot_id": bot.ID,
		"status": models.StatusRunning,
	}, "Bot run triggered"))
}

// InboundMessageRequest represents one inbound message to route
type InboundMessageRequest struct {
	Text   string `json:"text" binding:"required"`
	ChatID string `json:"chat_id"`
}

// routeBotMessage routes one inbound message through the bot's command
// router and, when it produces a reply, delivers it via the bot's channel.
func (s *Server) routeBotMessage(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	rt := router.New(bot, s.logger)
	reply, handled := rt.Route(connections.Message{Text: req.Text})

	sent := false
	if handled {
		sent = s.registry.SendMessage(c.Request.Context(), bot, reply, &connections.SendOptions{
			ChatID: req.ChatID,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"bot_id":  bot.ID,
		"handled": handled,
		"reply":   reply,
		"sent":    sent,
	}, "Message routed"))
}

// pollBotMessages pulls pending inbound messages from the bot's channel,
// routes recognized commands, and sends the replies back through the same
// channel. Messages that produce no reply are reported but not answered.
func (s *Server) pollBotMessages(c *gin.Context) {
	bot, err := s.registry.GetBot(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	ctx := c.Request.Context()
	messages := s.registry.ReceiveMessages(ctx, bot, &connections.ReceiveOptions{Limit: limit})

	rt := router.New(bot, s.logger)
	replied := 0
	results := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		reply, ok := rt.Route(msg)

		sent := false
		if ok {
			opts := &connections.SendOptions{}
			if id, idOk := msg.Chat["id"]; idOk {
				opts.ChatID = formatChatID(id)
			}
			sent = s.registry.SendMessage(ctx, bot, reply, opts)
			if sent {
				replied++
			}
		}

		results = append(results, map[string]interface{}{
			"message_id": msg.ID,
			"text":       msg.Text,
			"handled":    ok,
			"replied":    sent,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"bot_id":   bot.ID,
		"received": len(messages),
		"replied":  replied,
		"messages": results,
	}, "Messages polled"))
}

// formatChatID renders a decoded chat identifier for the wire. JSON
// numbers arrive as float64, and Telegram chat IDs exceed the range
// where %v stays in plain decimal notation.
func formatChatID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// getConnectionTypes lists the supported channel types and their
// configuration requirements
func (s *Server) getConnectionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, utils.NewSuccessResponse(
		s.registry.AvailableConnectionTypes(),
		"Connection types retrieved",
	))
}
