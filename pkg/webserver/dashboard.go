package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamedafzali/bot-manager/pkg/models"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// DashboardStats summarizes the fleet for overview tooling
type DashboardStats struct {
	TotalBots     int            `json:"total_bots"`
	ActiveBots    int            `json:"active_bots"`
	TotalPosts    int            `json:"total_posts"`
	StatusCounts  map[string]int `json:"status_counts"`
	Cities        []string       `json:"cities"`
	TotalServices int            `json:"total_services"`
	RecentBots    []models.Bot   `json:"recent_bots"`
}

// getDashboardStats returns fleet-wide statistics
func (s *Server) getDashboardStats(c *gin.Context) {
	bots, err := s.registry.ListBots(false)
	if err != nil {
		s.respondError(c, err)
		return
	}

	services, err := s.registry.ListServices("")
	if err != nil {
		s.respondError(c, err)
		return
	}

	stats := DashboardStats{
		TotalBots:     len(bots),
		StatusCounts:  make(map[string]int),
		TotalServices: len(services),
	}

	seen := make(map[string]bool)
	for _, bot := range bots {
		if bot.IsActive {
			stats.ActiveBots++
		}
		stats.TotalPosts += bot.TotalPosts
		stats.StatusCounts[string(bot.Status)]++
		if bot.CityName != "" && !seen[bot.CityName] {
			seen[bot.CityName] = true
			stats.Cities = append(stats.Cities, bot.CityName)
		}
	}

	recent := bots
	if len(recent) > 10 {
		recent = recent[:10]
	}
	stats.RecentBots = recent

	c.JSON(http.StatusOK, utils.NewSuccessResponse(stats, "Dashboard stats retrieved"))
}
