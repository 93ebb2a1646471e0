package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/metrics"
	"specflow/internal/payment"
)

const (
	MonthlyAmountCents = 2400
	yearlyDiscount     = 0.2
	paymentCurrency    = "usd"
)

var ErrMissingPaymentMethod = errors.New("payment method is required")

// AmountCents es el cargo autoritativo en centavos. Solo depende del ciclo.
func AmountCents(cycle domain.BillingCycle) int64 {
	if cycle == domain.BillingYearly {
		return int64(math.Round(MonthlyAmountCents * 12 * (1 - yearlyDiscount)))
	}
	return MonthlyAmountCents
}

// PaymentService crea y confirma payment intents con el procesador.
type PaymentService struct {
	logger    *zap.Logger
	gateway   payment.Gateway
	metrics   metrics.Recorder
	returnURL string
}

func NewPaymentService(logger *zap.Logger, gateway payment.Gateway, recorder metrics.Recorder, returnURL string) *PaymentService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &PaymentService{
		logger:    logger,
		gateway:   gateway,
		metrics:   recorder,
		returnURL: returnURL,
	}
}

// CreateIntent devuelve solo el client secret del intent.
func (s *PaymentService) CreateIntent(ctx context.Context, billingCycle, receiptEmail string) (string, error) {
	if s.gateway == nil {
		return "", &domain.ConfigurationError{Setting: "STRIPE_SECRET_KEY"}
	}
	cycle := domain.ParseBillingCycle(billingCycle)
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents:  AmountCents(cycle),
		Currency:     paymentCurrency,
		ReceiptEmail: strings.TrimSpace(receiptEmail),
		Metadata:     map[string]string{"billingCycle": string(cycle)},
	})
	if err != nil {
		s.metrics.RecordPaymentIntent(string(cycle), "failed")
		s.logger.Error("create payment intent failed", zap.String("cycle", string(cycle)), zap.Error(err))
		return "", err
	}
	s.metrics.RecordPaymentIntent(string(cycle), "created")
	s.logger.Info("payment intent created", zap.String("intent_id", intent.ID), zap.String("cycle", string(cycle)))
	return intent.ClientSecret, nil
}

// ConfirmPayment confirma el intent y devuelve su estado.
func (s *PaymentService) ConfirmPayment(ctx context.Context, clientSecret, paymentMethod string) (string, error) {
	if s.gateway == nil {
		return "", &domain.ConfigurationError{Setting: "STRIPE_SECRET_KEY"}
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return "", ErrMissingPaymentMethod
	}
	intent, err := s.gateway.ConfirmIntent(ctx, clientSecret, paymentMethod, s.returnURL)
	if err != nil {
		s.logger.Warn("confirm payment failed", zap.Error(err))
		return "", err
	}
	s.logger.Info("payment confirmed", zap.String("intent_id", intent.ID), zap.String("status", intent.Status))
	return intent.Status, nil
}
