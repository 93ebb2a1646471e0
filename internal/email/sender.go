package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid email address")

// ValidAddress acepta solo una direccion simple, sin nombre ni saltos de linea.
func ValidAddress(addr string) bool {
	if addr == "" || strings.ContainsAny(addr, "\r\n") {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Name == "" && parsed.Address == addr
}

func checkAddress(header, addr string) error {
	if !ValidAddress(addr) {
		return fmt.Errorf("%s header %q: %w", header, addr, ErrInvalidAddress)
	}
	return nil
}

// Message es un correo HTML listo para enviar.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender define la interfaz para envio de correos.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla; se usa cuando no hay SMTP configurado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
