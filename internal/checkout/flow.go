package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"specflow/internal/domain"
)

// Step es el paso actual del checkout.
type Step int

const (
	StepDetails   Step = 1
	StepPayment   Step = 2
	StepConfirmed Step = 3
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepPayment:
		return "payment"
	case StepConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const (
	StatusSucceeded   = "succeeded"
	ProcessingMessage = "Payment processing."
	ExitRoute         = "/generate"
)

var (
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrMissingClientSecret = errors.New("payment intent response has no client secret")
	ErrPaymentProcessing   = errors.New("a checkout action is already in progress")
)

// IntentCreator crea el payment intent en el backend y devuelve su client secret.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, cycle domain.BillingCycle, email string) (string, error)
}

// PaymentConfirmer confirma el pago con el procesador y devuelve el estado resultante.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethod string) (string, error)
}

// Flow es la maquina de estados Details -> Payment -> Confirmed.
type Flow struct {
	mu        sync.Mutex
	creator   IntentCreator
	confirmer PaymentConfirmer

	step         Step
	details      Details
	cycle        domain.BillingCycle
	clientSecret string
	processing   bool
	message      string
}

func NewFlow(creator IntentCreator, confirmer PaymentConfirmer) *Flow {
	return &Flow{
		creator:   creator,
		confirmer: confirmer,
		step:      StepDetails,
		details:   NewDetails(),
		cycle:     domain.BillingMonthly,
	}
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Details() Details {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details
}

func (f *Flow) SetDetails(d Details) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepDetails {
		return ErrInvalidTransition
	}
	f.details = d
	return nil
}

func (f *Flow) Cycle() domain.BillingCycle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycle
}

func (f *Flow) SetCycle(c domain.BillingCycle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepDetails {
		return ErrInvalidTransition
	}
	f.cycle = c
	return nil
}

// Quote calcula el total mostrado con los datos actuales.
func (f *Flow) Quote() Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return QuoteFor(f.cycle, f.details.Country)
}

// Message es el ultimo mensaje inline del paso de pago.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *Flow) ClientSecret() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientSecret
}

func (f *Flow) Processing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processing
}

// Next valida los datos, crea el payment intent y avanza a Payment.
// Si la validacion falla no se contacta al backend.
func (f *Flow) Next(ctx context.Context) error {
	f.mu.Lock()
	if f.step != StepDetails {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if f.processing {
		f.mu.Unlock()
		return ErrPaymentProcessing
	}
	if err := f.details.Validate(); err != nil {
		f.mu.Unlock()
		return err
	}
	cycle := f.cycle
	email := strings.TrimSpace(f.details.Email)
	f.processing = true
	f.mu.Unlock()

	secret, err := f.creator.CreatePaymentIntent(ctx, cycle, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.processing = false
	if err != nil {
		return fmt.Errorf("create payment intent: %w", err)
	}
	if secret == "" {
		return ErrMissingClientSecret
	}
	f.clientSecret = secret
	f.message = ""
	f.step = StepPayment
	return nil
}

// Back es la unica transicion hacia atras permitida: Payment -> Details.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment || f.processing {
		return ErrInvalidTransition
	}
	f.step = StepDetails
	f.message = ""
	return nil
}

// Confirm confirma el pago. Un error del procesador queda como mensaje inline y el flujo sigue en Payment.
func (f *Flow) Confirm(ctx context.Context, paymentMethod string) error {
	f.mu.Lock()
	if f.step != StepPayment {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	if f.processing {
		f.mu.Unlock()
		return ErrPaymentProcessing
	}
	secret := f.clientSecret
	f.processing = true
	f.message = ""
	f.mu.Unlock()

	status, err := f.confirmer.ConfirmPayment(ctx, secret, paymentMethod)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.processing = false
	if err != nil {
		f.message = confirmErrorMessage(err)
		return err
	}
	if status == StatusSucceeded {
		f.step = StepConfirmed
		return nil
	}
	f.message = ProcessingMessage
	return nil
}

// ExitRoute devuelve la ruta de salida una vez confirmado el pago.
func (f *Flow) ExitRoute() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepConfirmed {
		return "", false
	}
	return ExitRoute, true
}

type messager interface {
	UserMessage() string
}

func confirmErrorMessage(err error) string {
	var m messager
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return err.Error()
}
