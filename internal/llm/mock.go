package llm

import (
	"context"
	"sync"

	"specflow/internal/domain"
)

// MockClient permite tests y modo offline sin llamar a un LLM real.
type MockClient struct {
	Spec domain.GeneratedSpec
	Err  error

	mu    sync.Mutex
	Calls []MockCall
}

// MockCall registra los argumentos de una invocacion.
type MockCall struct {
	Idea         string
	ImageDataURL string
}

func (m *MockClient) GenerateSpec(ctx context.Context, idea, imageDataURL string) (domain.GeneratedSpec, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Idea: idea, ImageDataURL: imageDataURL})
	m.mu.Unlock()
	if m.Err != nil {
		return domain.GeneratedSpec{}, m.Err
	}
	return m.Spec, nil
}

// CallCount devuelve cuantas veces se invoco GenerateSpec.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
