package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"specflow/internal/service"
)

// SiteHandler atiende el newsletter y el formulario de contacto.
type SiteHandler struct {
	logger     *zap.Logger
	newsletter *service.NewsletterService
	contact    *service.ContactService
}

func NewSiteHandler(logger *zap.Logger, newsletter *service.NewsletterService, contact *service.ContactService) *SiteHandler {
	return &SiteHandler{logger: logger, newsletter: newsletter, contact: contact}
}

// Subscribe maneja POST /api/subscribe.
func (h *SiteHandler) Subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "error", err)
		return
	}

	if err := h.newsletter.Subscribe(c.Request.Context(), req.Email); err != nil {
		switch {
		case validationResponse(c, "error", err):
		case errors.Is(err, service.ErrAlreadySubscribed):
			c.JSON(http.StatusConflict, gin.H{"error": "You are already subscribed!"})
		default:
			h.logger.Error("subscribe failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully subscribed!"})
}

// Contact maneja POST /api/contact.
func (h *SiteHandler) Contact(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email" binding:"omitempty,email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	err := h.contact.Send(c.Request.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case validationResponse(c, "message", err):
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, try again later"})
		case configurationResponse(c, "message", err):
		default:
			h.logger.Error("contact failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Email failed to send"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully!"})
}
