package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/llm"
	"specflow/internal/payment"
)

func TestSubscribe_DuplicateSendsNoSecondWelcome(t *testing.T) {
	repo := newMockSubscriberRepo()
	mailer := &mockMailer{}
	svc := NewNewsletterService(zap.NewNop(), repo, mailer)
	ctx := context.Background()

	if err := svc.Subscribe(ctx, "ana@example.com"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	err := svc.Subscribe(ctx, " ANA@example.com ")
	if !errors.Is(err, ErrAlreadySubscribed) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if mailer.count(email.KindWelcome) != 1 {
		t.Fatalf("expected exactly one welcome mail, got %d", mailer.count(email.KindWelcome))
	}
	if mailer.sent[0].msg.Subject != "Welcome to SpecFlow Insights" {
		t.Fatalf("unexpected subject %q", mailer.sent[0].msg.Subject)
	}
}

func TestSubscribe_RequiresEmail(t *testing.T) {
	svc := NewNewsletterService(zap.NewNop(), newMockSubscriberRepo(), &mockMailer{})
	if err := svc.Subscribe(context.Background(), " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubscribe_RejectsInvalidEmail(t *testing.T) {
	repo := newMockSubscriberRepo()
	mailer := &mockMailer{}
	svc := NewNewsletterService(zap.NewNop(), repo, mailer)

	err := svc.Subscribe(context.Background(), "foo")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] != "Invalid email address" {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "foo"); err == nil {
		t.Fatalf("expected no subscriber stored")
	}
	if mailer.count(email.KindWelcome) != 0 {
		t.Fatalf("expected no welcome mail")
	}
}

func TestContact_RejectsInjectedEmail(t *testing.T) {
	mailer := &mockMailer{}
	svc := NewContactService(zap.NewNop(), mailer, nil, "ops@specflow.dev")

	err := svc.Send(context.Background(), ContactInput{
		Email:   "a@b.com\r\nBcc: victim1@example.com, victim2@example.com",
		Message: "Hi",
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] != "Invalid email address" {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected nothing dispatched, got %d", len(mailer.sent))
	}
}

func TestContact(t *testing.T) {
	mailer := &mockMailer{}
	svc := NewContactService(zap.NewNop(), mailer, nil, "ops@specflow.dev")
	ctx := context.Background()

	err := svc.Send(ctx, ContactInput{Email: "ana@example.com"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["message"] != "Email and message are required" {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.Send(ctx, ContactInput{Name: "Ana", Email: "ana@example.com", Subject: "Pricing", Message: "Hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg := mailer.sent[0].msg
	if msg.To != "ops@specflow.dev" || msg.ReplyTo != "ana@example.com" || msg.Subject != "New Contact Msg: Pricing" {
		t.Fatalf("unexpected relay: %+v", msg)
	}

	limited := NewContactService(zap.NewNop(), mailer, denyAll{}, "ops@specflow.dev")
	if err := limited.Send(ctx, ContactInput{Email: "ana@example.com", Message: "Hi"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestAmountCents(t *testing.T) {
	if got := AmountCents(domain.BillingMonthly); got != 2400 {
		t.Fatalf("monthly: expected 2400, got %d", got)
	}
	if got := AmountCents(domain.BillingYearly); got != 23040 {
		t.Fatalf("yearly: expected 23040, got %d", got)
	}
}

func TestCreateIntent_ServerComputesAmount(t *testing.T) {
	cases := []struct {
		cycle string
		want  int64
	}{
		{"monthly", 2400},
		{"yearly", 23040},
		{"weekly", 2400},
		{"", 2400},
	}
	for _, tc := range cases {
		t.Run(tc.cycle, func(t *testing.T) {
			gw := &mockGateway{}
			svc := NewPaymentService(zap.NewNop(), gw, nil, "")

			secret, err := svc.CreateIntent(context.Background(), tc.cycle, "ana@example.com")
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if secret != "pi_1_secret_abc" {
				t.Fatalf("unexpected secret %q", secret)
			}
			if gw.lastRequest.AmountCents != tc.want || gw.lastRequest.Currency != "usd" || gw.lastRequest.ReceiptEmail != "ana@example.com" {
				t.Fatalf("unexpected request %+v", gw.lastRequest)
			}
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	gw := &mockGateway{status: "succeeded"}
	svc := NewPaymentService(zap.NewNop(), gw, nil, "")

	status, err := svc.ConfirmPayment(context.Background(), "pi_1_secret_abc", "pm_card_visa")
	if err != nil || status != "succeeded" {
		t.Fatalf("unexpected confirm result %q %v", status, err)
	}
	if _, err := svc.ConfirmPayment(context.Background(), "pi_1_secret_abc", ""); !errors.Is(err, ErrMissingPaymentMethod) {
		t.Fatalf("expected missing payment method, got %v", err)
	}

	gw.confirmErr = &payment.ProcessorError{Message: "Your card was declined."}
	if _, err := svc.ConfirmPayment(context.Background(), "pi_1_secret_abc", "pm"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected processor error, got %v", err)
	}

	unconfigured := NewPaymentService(zap.NewNop(), nil, nil, "")
	if _, err := unconfigured.CreateIntent(context.Background(), "monthly", ""); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSpecService_Generate(t *testing.T) {
	mock := &llm.MockClient{Spec: domain.GeneratedSpec{Title: "x"}}
	svc := NewSpecService(zap.NewNop(), mock, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, " ", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Generate(ctx, "", "data:text/plain;base64,aGk="); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected image validation error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("generator must not be called for invalid input")
	}

	spec, err := svc.Generate(ctx, "", "data:image/png;base64,iVBORw0KGgo=")
	if err != nil || spec.Title != "x" {
		t.Fatalf("unexpected result %+v %v", spec, err)
	}

	mock.Err = &domain.MalformedResponseError{}
	if _, err := svc.Generate(ctx, "idea", ""); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}
