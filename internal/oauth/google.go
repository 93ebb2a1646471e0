package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"specflow/internal/domain"
)

const DefaultGoogleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Profile es la informacion de perfil que devuelve el proveedor.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ProfileFetcher intercambia un access token del proveedor por el perfil del usuario.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

// GoogleClient consulta el endpoint userinfo de Google. La URL es configurable para tests.
type GoogleClient struct {
	userinfoURL string
	client      *http.Client
}

func NewGoogleClient(userinfoURL string, httpClient *http.Client) *GoogleClient {
	if userinfoURL == "" {
		userinfoURL = DefaultGoogleUserinfoURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleClient{userinfoURL: userinfoURL, client: httpClient}
}

func (g *GoogleClient) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Profile{}, fmt.Errorf("google access token is required: %w", domain.ErrAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("read userinfo response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Profile{}, fmt.Errorf("google rejected access token: %w", domain.ErrAuth)
	case resp.StatusCode != http.StatusOK:
		return Profile{}, &domain.UpstreamError{Provider: "google", StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, &domain.MalformedResponseError{Err: fmt.Errorf("parse userinfo: %w", err)}
	}
	return p, nil
}
