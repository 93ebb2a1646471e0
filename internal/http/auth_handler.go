package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/service"
)

// AuthHandler expone signup, login, login con Google y restablecimiento de contrasena.
type AuthHandler struct {
	logger *zap.Logger
	users  *service.UserService
}

func NewAuthHandler(logger *zap.Logger, users *service.UserService) *AuthHandler {
	return &AuthHandler{logger: logger, users: users}
}

func authResponse(res service.AuthResult) gin.H {
	return gin.H{"user": res.User, "token": res.Token}
}

// Signup maneja POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	res, err := h.users.Signup(c.Request.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case validationResponse(c, "message", err):
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, authResponse(res))
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrUseGoogleLogin):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Please sign in with Google"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, authResponse(res))
}

// GoogleLogin maneja POST /api/auth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	res, err := h.users.GoogleLogin(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGoogleToken):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Google Token"})
		case configurationResponse(c, "message", err):
		case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrMalformedResponse):
			h.logger.Warn("google profile exchange failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"message": "Google sign-in is unavailable"})
		default:
			h.logger.Error("google login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, authResponse(res))
}

// ForgotPassword maneja POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		switch {
		case validationResponse(c, "message", err):
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, try again later"})
		default:
			h.logger.Error("forgot password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset link sent successfully!"})
}

// ResetPassword maneja POST /api/auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingResponse(c, "message", err)
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		switch {
		case validationResponse(c, "message", err):
		case errors.Is(err, service.ErrInvalidResetToken):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Link expired or invalid token"})
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully!"})
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}
	user, err := h.users.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("me failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
