package webserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// TokenRequest represents the request to exchange the admin API key for
// a short-lived JWT
type TokenRequest struct {
	APIKey       string `json:"api_key" binding:"required"`
	OperatorName string `json:"operator_name" binding:"required,min=1,max=100"`
}

// issueToken exchanges the admin API key for a JWT used on the
// management routes
func (s *Server) issueToken(c *gin.Context) {
	if s.config.Security.AdminAPIKey == "" {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Authentication is not enabled"))
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.config.Security.AdminAPIKey)) != 1 {
		s.logger.LogSecurity("invalid_api_key", c.ClientIP(), map[string]interface{}{
			"operator": req.OperatorName,
		})
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid API key"))
		return
	}

	token, err := s.jwtManager.GenerateToken(s.validator.SanitizeInput(req.OperatorName))
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"token":      token,
		"expires_in": s.config.Security.JWTExpirationHours * 3600,
	}, "Token issued"))
}
