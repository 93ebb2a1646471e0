package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/session"
)

// Error es una respuesta no-2xx del backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// UserMessage es el mensaje del backend tal cual, pensado para mostrarse.
func (e *Error) UserMessage() string { return e.Message }

// AuthResponse es la respuesta de signup, login y login con Google.
type AuthResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// PublicConfig son los identificadores publicos que expone el backend.
type PublicConfig struct {
	GoogleClientID  string `json:"googleClientId"`
	StripePublicKey string `json:"stripePublicKey"`
}

// Client habla con el backend de SpecFlow.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New recibe la URL base que incluye el prefijo /api.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) PublicConfig(ctx context.Context) (PublicConfig, error) {
	var out PublicConfig
	err := c.do(ctx, http.MethodGet, "/config", "", nil, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username, "email": email, "password": password,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

func (c *Client) GoogleLogin(ctx context.Context, accessToken string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/google", "", map[string]string{"token": accessToken}, &out)
	return out, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	var out messageResponse
	path := "/auth/reset-password/" + token
	err := c.do(ctx, http.MethodPost, path, "", map[string]string{"password": password}, &out)
	return out.Message, err
}

func (c *Client) Me(ctx context.Context, sessionToken string) (session.User, error) {
	var out struct {
		User session.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/me", sessionToken, nil, &out)
	return out.User, err
}

// CreatePaymentIntent solo envia el ciclo: el monto lo decide el servidor.
func (c *Client) CreatePaymentIntent(ctx context.Context, cycle domain.BillingCycle, email string) (string, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	err := c.do(ctx, http.MethodPost, "/create-payment-intent", "", map[string]string{
		"billingCycle": string(cycle), "email": email,
	}, &out)
	return out.ClientSecret, err
}

func (c *Client) ConfirmPayment(ctx context.Context, clientSecret, paymentMethod string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, "/confirm-payment", "", map[string]string{
		"clientSecret": clientSecret, "paymentMethod": paymentMethod,
	}, &out)
	return out.Status, err
}

func (c *Client) Subscribe(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "/subscribe", "", map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) Contact(ctx context.Context, req ContactRequest) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "/contact", "", req, &out)
	return out.Message, err
}

// GenerateSpec pide la spec al backend y la decodifica con las mismas reglas que el cliente LLM.
func (c *Client) GenerateSpec(ctx context.Context, idea, imageDataURL string) (domain.GeneratedSpec, error) {
	var out struct {
		Spec json.RawMessage `json:"spec"`
	}
	if err := c.do(ctx, http.MethodPost, "/generate", "", map[string]string{"idea": idea, "image": imageDataURL}, &out); err != nil {
		return domain.GeneratedSpec{}, err
	}
	if len(out.Spec) == 0 {
		return domain.GeneratedSpec{}, &domain.MalformedResponseError{Err: fmt.Errorf("response has no spec")}
	}
	return domain.DecodeGeneratedSpec(out.Spec)
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.MalformedResponseError{Err: err}
	}
	return nil
}
