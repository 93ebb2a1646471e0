package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v81"

	"specflow/internal/domain"
)

type fakeIntents struct {
	newParams     *stripe.PaymentIntentParams
	confirmID     string
	confirmParams *stripe.PaymentIntentConfirmParams
	status        stripe.PaymentIntentStatus
	err           error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.newParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc", Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, nil
}

func (f *fakeIntents) Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	f.confirmID = id
	f.confirmParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: id, Status: f.status}, nil
}

func TestCreateIntent_Params(t *testing.T) {
	fake := &fakeIntents{}
	g := &StripeGateway{intents: fake}

	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		AmountCents:  2400,
		Currency:     "usd",
		ReceiptEmail: "ana@example.com",
		Metadata:     map[string]string{"billingCycle": "monthly"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if intent.ClientSecret != "pi_123_secret_abc" {
		t.Fatalf("unexpected intent %+v", intent)
	}
	p := fake.newParams
	if *p.Amount != 2400 || *p.Currency != "usd" || *p.ReceiptEmail != "ana@example.com" {
		t.Fatalf("unexpected params: amount=%d currency=%s", *p.Amount, *p.Currency)
	}
	if p.AutomaticPaymentMethods == nil || !*p.AutomaticPaymentMethods.Enabled {
		t.Fatalf("expected automatic payment methods")
	}
	if p.Metadata["billingCycle"] != "monthly" {
		t.Fatalf("expected billing cycle metadata, got %v", p.Metadata)
	}
}

func TestConfirmIntent(t *testing.T) {
	fake := &fakeIntents{status: stripe.PaymentIntentStatusSucceeded}
	g := &StripeGateway{intents: fake}

	intent, err := g.ConfirmIntent(context.Background(), "pi_123_secret_abc", "pm_card_visa", "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if fake.confirmID != "pi_123" || *fake.confirmParams.PaymentMethod != "pm_card_visa" {
		t.Fatalf("unexpected confirm call: id=%s", fake.confirmID)
	}
	if intent.Status != "succeeded" {
		t.Fatalf("unexpected status %q", intent.Status)
	}

	if _, err := g.ConfirmIntent(context.Background(), "garbage", "pm", ""); !errors.Is(err, ErrInvalidClientSecret) {
		t.Fatalf("expected invalid secret error, got %v", err)
	}
}

func TestStripeErrorsBecomeProcessorErrors(t *testing.T) {
	fake := &fakeIntents{err: &stripe.Error{HTTPStatusCode: 402, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined."}}
	g := &StripeGateway{intents: fake}

	_, err := g.ConfirmIntent(context.Background(), "pi_1_secret_x", "pm", "")
	var pe *ProcessorError
	if !errors.As(err, &pe) || pe.Message != "Your card was declined." {
		t.Fatalf("expected processor error, got %v", err)
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream kind")
	}
}

func TestNewStripeGatewayRequiresKey(t *testing.T) {
	if _, err := NewStripeGateway(""); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
