package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/repository"
)

var ErrAlreadySubscribed = fmt.Errorf("already subscribed: %w", domain.ErrConflict)

// NewsletterService gestiona las suscripciones.
type NewsletterService struct {
	logger      *zap.Logger
	subscribers repository.SubscriberRepository
	mailer      MailDispatcher
}

func NewNewsletterService(logger *zap.Logger, subscribers repository.SubscriberRepository, mailer MailDispatcher) *NewsletterService {
	return &NewsletterService{logger: logger, subscribers: subscribers, mailer: mailer}
}

// Subscribe persiste el email y envia la bienvenida en segundo plano. Un duplicado no envia correo.
func (s *NewsletterService) Subscribe(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return &domain.ValidationError{Fields: map[string]string{"email": "Email is required"}}
	}
	if !email.ValidAddress(emailAddr) {
		return &domain.ValidationError{Fields: map[string]string{"email": "Invalid email address"}}
	}

	if _, err := s.subscribers.GetByEmail(ctx, emailAddr); err == nil {
		return ErrAlreadySubscribed
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	err := s.subscribers.Create(ctx, domain.Subscriber{Email: emailAddr, SubscribedAt: time.Now().UTC()})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAlreadySubscribed
	}
	if err != nil {
		return err
	}

	msg, err := email.Welcome(emailAddr)
	if err != nil {
		s.logger.Warn("render welcome mail failed", zap.Error(err))
		return nil
	}
	s.mailer.Dispatch(email.KindWelcome, msg)
	return nil
}
