package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vincent-petithory/dataurl"
	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/llm"
	"specflow/internal/metrics"
)

// SpecService expone el cliente de completions detras del backend para que la API key no salga del servidor.
type SpecService struct {
	logger    *zap.Logger
	generator llm.SpecGenerator
	metrics   metrics.Recorder
}

func NewSpecService(logger *zap.Logger, generator llm.SpecGenerator, recorder metrics.Recorder) *SpecService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &SpecService{logger: logger, generator: generator, metrics: recorder}
}

func (s *SpecService) Generate(ctx context.Context, idea, image string) (domain.GeneratedSpec, error) {
	idea = strings.TrimSpace(idea)
	image = strings.TrimSpace(image)
	if idea == "" && image == "" {
		return domain.GeneratedSpec{}, &domain.ValidationError{Fields: map[string]string{"idea": "Idea or image is required"}}
	}
	if image != "" {
		du, err := dataurl.DecodeString(image)
		if err != nil || du.MediaType.Type != "image" {
			return domain.GeneratedSpec{}, &domain.ValidationError{Fields: map[string]string{"image": "Image must be an image data URL"}}
		}
	}

	spec, err := s.generator.GenerateSpec(ctx, idea, image)
	if err != nil {
		outcome := generationOutcome(err)
		s.metrics.RecordGeneration(outcome)
		s.logger.Warn("spec generation failed", zap.String("outcome", outcome), zap.Error(err))
		return domain.GeneratedSpec{}, err
	}
	s.metrics.RecordGeneration("success")
	return spec, nil
}

func generationOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "error"
	}
}
