package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamedafzali/bot-manager/pkg/models"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// RegisterServiceRequest represents a service directory registration
type RegisterServiceRequest struct {
	ID          string `json:"id" binding:"required,min=1,max=100"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	ServiceType string `json:"service_type" binding:"required,min=1,max=50"`
	EndpointURL string `json:"endpoint_url"`
	APIKey      string `json:"api_key"`
	IsActive    *bool  `json:"is_active"`
}

// registerService upserts a service directory entry
func (s *Server) registerService(c *gin.Context) {
	var req RegisterServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if req.EndpointURL != "" && !s.validator.ValidateURL(req.EndpointURL) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid endpoint URL"))
		return
	}

	svc := &models.Service{
		ID:          req.ID,
		Name:        s.validator.SanitizeInput(req.Name),
		ServiceType: req.ServiceType,
		EndpointURL: req.EndpointURL,
		APIKey:      req.APIKey,
		IsActive:    true,
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.registry.RegisterService(svc); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(svc, "Service registered successfully"))
}

// getServices returns registered services, optionally filtered by type
func (s *Server) getServices(c *gin.Context) {
	services, err := s.registry.ListServices(c.Query("type"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(services, "Services retrieved successfully"))
}

// pingService refreshes a service's liveness timestamp
func (s *Server) pingService(c *gin.Context) {
	if err := s.registry.PingService(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Service pinged successfully"))
}

// deleteService removes a service from the directory
func (s *Server) deleteService(c *gin.Context) {
	if err := s.registry.DeleteService(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Service deleted successfully"))
}
