package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/oauth"
	"specflow/internal/repository"
)

const bcryptCost = 12

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = fmt.Errorf("user already exists: %w", domain.ErrConflict)
	ErrUseGoogleLogin     = fmt.Errorf("account has no password, sign in with google: %w", domain.ErrAuth)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrAuth)
	ErrInvalidGoogleToken = fmt.Errorf("invalid google token: %w", domain.ErrAuth)
	ErrInvalidResetToken  = fmt.Errorf("link expired or invalid token: %w", domain.ErrAuth)
	ErrRateLimited        = errors.New("rate limited")
)

// MailDispatcher envia correos sin bloquear la peticion.
type MailDispatcher interface {
	Dispatch(kind string, msg email.Message)
}

// AuthResult es la respuesta de signup, login y login federado.
type AuthResult struct {
	User  domain.User
	Token string
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	tokens    *JWTService
	google    oauth.ProfileFetcher
	mailer    MailDispatcher
	limiter   RateLimiter
	clientURL string
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, tokens *JWTService, google oauth.ProfileFetcher, mailer MailDispatcher, limiter RateLimiter, clientURL string) *UserService {
	if limiter == nil {
		limiter = allowAll{}
	}
	return &UserService{
		logger:    logger,
		users:     users,
		tokens:    tokens,
		google:    google,
		mailer:    mailer,
		limiter:   limiter,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

func (s *UserService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	emailAddr := normalizeEmail(input.Email)
	fields := map[string]string{}
	if emailAddr == "" {
		fields["email"] = "Email is required"
	} else if !email.ValidAddress(emailAddr) {
		fields["email"] = "Invalid email address"
	}
	if input.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return AuthResult{}, &domain.ValidationError{Fields: fields}
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Username),
		Email:        emailAddr,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return s.authResult(user)
}

func (s *UserService) Login(ctx context.Context, emailAddr, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrUserNotFound
		}
		return AuthResult{}, err
	}
	if !user.HasPassword() {
		return AuthResult{}, ErrUseGoogleLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.authResult(user)
}

// GoogleLogin canjea el access token de Google por el perfil y emite siempre un token local.
func (s *UserService) GoogleLogin(ctx context.Context, accessToken string) (AuthResult, error) {
	if s.google == nil {
		return AuthResult{}, &domain.ConfigurationError{Setting: "GOOGLE_CLIENT_ID"}
	}
	profile, err := s.google.FetchProfile(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return AuthResult{}, ErrInvalidGoogleToken
		}
		return AuthResult{}, err
	}
	emailAddr := normalizeEmail(profile.Email)
	if emailAddr == "" {
		return AuthResult{}, ErrInvalidGoogleToken
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		user = domain.User{
			ID:             uuid.NewString(),
			Name:           strings.TrimSpace(profile.Name),
			Email:          emailAddr,
			ProfilePicture: profile.Picture,
			CreatedAt:      time.Now().UTC(),
		}
		err = s.users.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicate) {
			user, err = s.users.GetByEmail(ctx, emailAddr)
		} else if err == nil {
			s.logger.Info("user created from google profile", zap.String("user_id", user.ID))
		}
	}
	if err != nil {
		return AuthResult{}, err
	}
	return s.authResult(user)
}

// ForgotPassword emite un token de reset y envia el enlace sin esperar al correo.
func (s *UserService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return &domain.ValidationError{Fields: map[string]string{"email": "Email is required"}}
	}
	if !email.ValidAddress(emailAddr) {
		return &domain.ValidationError{Fields: map[string]string{"email": "Invalid email address"}}
	}
	if !s.limiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.tokens.IssueResetToken(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := s.clientURL + "/reset-password/" + token
	msg, err := email.PasswordReset(user.Email, link, int(s.tokens.ResetTTL().Minutes()))
	if err != nil {
		return err
	}
	s.mailer.Dispatch(email.KindPasswordReset, msg)
	return nil
}

// ResetPassword no distingue entre token expirado, manipulado o ya usado.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return &domain.ValidationError{Fields: map[string]string{"password": "Password is required"}}
	}
	userID, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		s.logger.Debug("reset token rejected", zap.Error(err))
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", userID))
	return nil
}

// Me devuelve el usuario de la sesion actual.
func (s *UserService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) authResult(user domain.User) (AuthResult, error) {
	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue session token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
