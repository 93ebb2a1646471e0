package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/service"
)

// GenerateHandler expone la generacion de specs sin revelar la API key del LLM.
type GenerateHandler struct {
	logger *zap.Logger
	specs  *service.SpecService
}

func NewGenerateHandler(logger *zap.Logger, specs *service.SpecService) *GenerateHandler {
	return &GenerateHandler{logger: logger, specs: specs}
}

// Generate maneja POST /api/generate.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req struct {
		Idea  string `json:"idea"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	spec, err := h.specs.Generate(c.Request.Context(), req.Idea, req.Image)
	if err != nil {
		var upstream *domain.UpstreamError
		switch {
		case validationResponse(c, "error", err):
		case configurationResponse(c, "error", err):
		case errors.As(err, &upstream):
			c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Message})
		case errors.Is(err, domain.ErrMalformedResponse):
			c.JSON(http.StatusBadGateway, gin.H{"error": "The model returned an unreadable spec"})
		default:
			h.logger.Error("generate failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Spec generation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"spec": spec})
}
