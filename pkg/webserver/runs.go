package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hamedafzali/bot-manager/pkg/models"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// RecordRunRequest represents one completed bot run
type RecordRunRequest struct {
	Status       models.RunStatus       `json:"status" binding:"required"`
	Processed    int                    `json:"processed"`
	Posted       int                    `json:"posted"`
	Duration     float64                `json:"duration"`
	ErrorMessage string                 `json:"error_message"`
	RunTime      *time.Time             `json:"run_time"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// recordBotRun appends an immutable run record and folds successful
// posted counts into the bot's totals
func (s *Server) recordBotRun(c *gin.Context) {
	var req RecordRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	run := &models.BotRun{
		BotID:        c.Param("id"),
		Status:       req.Status,
		Processed:    req.Processed,
		Posted:       req.Posted,
		Duration:     req.Duration,
		ErrorMessage: req.ErrorMessage,
		Metadata:     req.Metadata,
	}
	if req.RunTime != nil {
		run.RunTime = req.RunTime.UTC()
	}

	if err := s.registry.RecordRun(run); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(run, "Run recorded successfully"))
}

// getBotRuns returns the most recent runs for a bot
func (s *Server) getBotRuns(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	runs, err := s.registry.GetRuns(c.Param("id"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(runs, "Runs retrieved successfully"))
}

// getBotStats returns aggregated run statistics for a bot
func (s *Server) getBotStats(c *gin.Context) {
	stats, err := s.registry.GetBotStats(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(stats, "Stats retrieved successfully"))
}
