package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/email"
)

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactService reenvia el formulario de contacto al buzon del operador.
type ContactService struct {
	logger  *zap.Logger
	mailer  MailDispatcher
	limiter RateLimiter
	inbox   string
}

func NewContactService(logger *zap.Logger, mailer MailDispatcher, limiter RateLimiter, inbox string) *ContactService {
	if limiter == nil {
		limiter = allowAll{}
	}
	return &ContactService{logger: logger, mailer: mailer, limiter: limiter, inbox: inbox}
}

func (s *ContactService) Send(ctx context.Context, input ContactInput) error {
	from := strings.TrimSpace(input.Email)
	if from == "" || strings.TrimSpace(input.Message) == "" {
		return &domain.ValidationError{Fields: map[string]string{"message": "Email and message are required"}}
	}
	if !email.ValidAddress(from) {
		return &domain.ValidationError{Fields: map[string]string{"email": "Invalid email address"}}
	}
	if s.inbox == "" {
		return &domain.ConfigurationError{Setting: "CONTACT_INBOX"}
	}
	if !s.limiter.Allow(from) {
		return ErrRateLimited
	}

	msg, err := email.ContactRelay(s.inbox, email.ContactForm{
		Name:    input.Name,
		Email:   from,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		return err
	}
	s.mailer.Dispatch(email.KindContact, msg)
	s.logger.Info("contact message queued", zap.String("reply_to", from))
	return nil
}
