package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"specflow/internal/payment"
	"specflow/internal/service"
)

// PaymentHandler expone la creacion y confirmacion de payment intents.
type PaymentHandler struct {
	logger   *zap.Logger
	payments *service.PaymentService
}

func NewPaymentHandler(logger *zap.Logger, payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{logger: logger, payments: payments}
}

// CreatePaymentIntent maneja POST /api/create-payment-intent. El monto lo decide el servidor.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		BillingCycle string `json:"billingCycle"`
		Email        string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	secret, err := h.payments.CreateIntent(c.Request.Context(), req.BillingCycle, req.Email)
	if err != nil {
		h.paymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// ConfirmPayment maneja POST /api/confirm-payment.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req struct {
		ClientSecret  string `json:"clientSecret" binding:"required"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, err := h.payments.ConfirmPayment(c.Request.Context(), req.ClientSecret, req.PaymentMethod)
	if err != nil {
		h.paymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *PaymentHandler) paymentError(c *gin.Context, err error) {
	var perr *payment.ProcessorError
	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": perr.UserMessage()})
	case errors.Is(err, service.ErrMissingPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method is required"})
	case errors.Is(err, payment.ErrInvalidClientSecret):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client secret"})
	case configurationResponse(c, "error", err):
	default:
		h.logger.Error("payment request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment could not be processed"})
	}
}
