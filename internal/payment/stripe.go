package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"specflow/internal/domain"
)

// IntentRequest describe el cargo a crear. El monto siempre lo fija el servidor.
type IntentRequest struct {
	AmountCents  int64
	Currency     string
	ReceiptEmail string
	Metadata     map[string]string
}

// Intent es la parte del payment intent que el backend necesita.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway delega en el procesador de pagos.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	ConfirmIntent(ctx context.Context, clientSecret, paymentMethod, returnURL string) (Intent, error)
}

// ProcessorError es un error devuelto por el procesador con un mensaje apto para el usuario.
type ProcessorError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProcessorError) Error() string { return "stripe: " + e.Message }

func (e *ProcessorError) Is(target error) bool { return target == domain.ErrUpstream }

// UserMessage es el texto que el procesador considera mostrable al comprador.
func (e *ProcessorError) UserMessage() string { return e.Message }

var ErrInvalidClientSecret = errors.New("invalid payment intent client secret")

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

// StripeGateway implementa Gateway con stripe-go.
type StripeGateway struct {
	intents intentAPI
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, &domain.ConfigurationError{Setting: "STRIPE_SECRET_KEY"}
	}
	return &StripeGateway{
		intents: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}, nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return Intent{}, wrapStripeError("create payment intent", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, clientSecret, paymentMethod, returnURL string) (Intent, error) {
	id, err := IntentIDFromSecret(clientSecret)
	if err != nil {
		return Intent{}, err
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	if returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}
	params.Context = ctx

	pi, err := g.intents.Confirm(id, params)
	if err != nil {
		return Intent{}, wrapStripeError("confirm payment intent", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// IntentIDFromSecret extrae el id "pi_..." de un client secret "pi_..._secret_...".
func IntentIDFromSecret(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || !strings.HasPrefix(id, "pi_") {
		return "", ErrInvalidClientSecret
	}
	return id, nil
}

func wrapStripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &ProcessorError{StatusCode: se.HTTPStatusCode, Code: string(se.Code), Message: se.Msg}
	}
	return fmt.Errorf("%s: %w", op, err)
}
