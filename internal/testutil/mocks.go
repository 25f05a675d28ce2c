package testutil

import (
	"context"

	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/llm"
)

// NopLogger discards everything; tests assert on behavior, not log output.
type NopLogger struct{}

func (NopLogger) Debug(module, message string, details map[string]interface{}) {}
func (NopLogger) Info(module, message string, details map[string]interface{})  {}
func (NopLogger) Warn(module, message string, details map[string]interface{})  {}
func (NopLogger) Error(module, message string, details map[string]interface{}) {}
func (NopLogger) Sync() error                                                  { return nil }

// MockLLMProvider lets a test script the model's replies per call
type MockLLMProvider struct {
	ChatFn     func(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error)
	GenerateFn func(ctx context.Context, prompt string, opts ...llm.Option) (string, error)
}

func (m *MockLLMProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if m.ChatFn != nil {
		return m.ChatFn(ctx, history, opts...)
	}
	return "mock reply", nil
}

func (m *MockLLMProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt, opts...)
	}
	return "mock completion", nil
}

// MockEmbeddingProvider returns a fixed vector unless overridden
type MockEmbeddingProvider struct {
	GenerateFn func(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error)
}

func (m *MockEmbeddingProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, text, taskType)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: []float32{1, 0, 0},
		},
	}, nil
}
