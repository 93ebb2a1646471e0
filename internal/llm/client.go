package llm

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
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultTextModel   = "llama-3.3-70b-versatile"
	DefaultVisionModel = "llama-3.2-11b-vision-preview"

	providerName        = "groq"
	temperature         = 0.2
	maxCompletionTokens = 2000
)

const systemPrompt = "You are an expert Product Manager. Return ONLY valid JSON. " +
	"Do not use markdown blocks (no ```json). " +
	"The JSON must match this structure: " +
	`{"title": "string", "summary": "string", "userStories": ["string"], "acceptanceCriteria": ["string"], "technicalNotes": "string"}`

// SpecGenerator traduce una idea (y opcionalmente una imagen) en una especificacion.
type SpecGenerator interface {
	GenerateSpec(ctx context.Context, idea, imageDataURL string) (domain.GeneratedSpec, error)
}

// Options agrupa los ajustes del cliente de completions.
type Options struct {
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
	HTTPClient  *http.Client
}

// HTTPClient implementa SpecGenerator contra una API chat/completions compatible con OpenAI.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPClient construye el cliente. La API key se valida en cada llamada, antes de tocar la red.
func NewHTTPClient(opts Options, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TextModel == "" {
		opts.TextModel = DefaultTextModel
	}
	if opts.VisionModel == "" {
		opts.VisionModel = DefaultVisionModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      strings.TrimSpace(opts.APIKey),
		textModel:   opts.TextModel,
		visionModel: opts.VisionModel,
		client:      opts.HTTPClient,
		logger:      logger,
	}
}

// ModelFor devuelve el modelo de vision si hay imagen, el de texto en otro caso.
func (c *HTTPClient) ModelFor(imageDataURL string) string {
	if imageDataURL != "" {
		return c.visionModel
	}
	return c.textModel
}

func (c *HTTPClient) GenerateSpec(ctx context.Context, idea, imageDataURL string) (domain.GeneratedSpec, error) {
	if c.apiKey == "" {
		return domain.GeneratedSpec{}, &domain.ConfigurationError{Setting: "LLM_API_KEY"}
	}

	model := c.ModelFor(imageDataURL)
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent(idea, imageDataURL)},
		},
		Temperature:         temperature,
		MaxCompletionTokens: maxCompletionTokens,
		ResponseFormat:      &responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return domain.GeneratedSpec{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.GeneratedSpec{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.GeneratedSpec{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GeneratedSpec{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := &domain.UpstreamError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.StatusCode, respBody),
		}
		c.logger.Warn("llm upstream error",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.String("message", upstream.Message),
		)
		return domain.GeneratedSpec{}, upstream
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return domain.GeneratedSpec{}, &domain.MalformedResponseError{Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	content := "{}"
	if len(cr.Choices) > 0 {
		if c := stripCodeFence(cr.Choices[0].Message.Content); c != "" {
			content = c
		}
	}

	spec, err := domain.DecodeGeneratedSpec([]byte(content))
	if err != nil {
		c.logger.Warn("llm returned malformed spec", zap.String("model", model), zap.Error(err))
		return domain.GeneratedSpec{}, err
	}

	c.logger.Debug("llm spec generated",
		zap.String("model", model),
		zap.Duration("latency", time.Since(start)),
	)
	return spec, nil
}

func userContent(idea, imageDataURL string) any {
	if imageDataURL == "" {
		return "Create a technical spec JSON for: " + idea
	}
	return []contentPart{
		{Type: "text", Text: "Create a technical spec for: " + idea},
		{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
	}
}

func upstreamMessage(status int, body []byte) string {
	var er struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil && er.Error.Message != "" {
		return er.Error.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         float64         `json:"temperature"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
