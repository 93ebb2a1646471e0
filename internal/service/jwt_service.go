package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"specflow/internal/domain"
)

const (
	tokenTypeSession = "session"
	tokenTypeReset   = "reset"
)

// JWTService emite y valida tokens de sesion y de restablecimiento de contrasena.
type JWTService struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	issuer     string
	resets     ResetTokenStore
	now        func() time.Time
}

// Claims son los claims de ambos tipos de token. Los de reset solo llevan el id.
type Claims struct {
	UserID    string `json:"id"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, sessionTTL, resetTTL time.Duration, resets ResetTokenStore) *JWTService {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}
	if resets == nil {
		resets = NewMemoryResetTokenStore()
	}
	return &JWTService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		issuer:     "specflow",
		resets:     resets,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ResetTTL es la validez del enlace de restablecimiento.
func (s *JWTService) ResetTTL() time.Duration {
	return s.resetTTL
}

// IssueSession firma un token de sesion con id y email.
func (s *JWTService) IssueSession(user domain.User) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := s.now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return s.sign(claims)
}

func (s *JWTService) ParseSession(token string) (Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeSession {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

// IssueResetToken firma un token de un solo uso que solo contiene el id del usuario.
func (s *JWTService) IssueResetToken(ctx context.Context, userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := s.now()
	jti := uuid.NewString()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}
	signed, err := s.sign(claims)
	if err != nil {
		return "", err
	}
	if err := s.resets.Store(ctx, jti, userID, s.resetTTL); err != nil {
		return "", err
	}
	return signed, nil
}

// ConsumeResetToken valida firma, expiracion y tipo, y marca el token como usado.
func (s *JWTService) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeReset || claims.ID == "" {
		return "", ErrJWTInvalid
	}
	ok, err := s.resets.Consume(ctx, claims.ID)
	if err != nil || !ok {
		return "", ErrJWTInvalid
	}
	return claims.UserID, nil
}

func (s *JWTService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) parse(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
