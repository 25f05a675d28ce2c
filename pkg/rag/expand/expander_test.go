package expand

import (
	"context"
	"errors"
	"testing"

	"ai-discovery-be/internal/testutil"
	"ai-discovery-be/pkg/llm"
)

func TestExpandRejectsEmptyQuery(t *testing.T) {
	e := NewExpander(&testutil.MockLLMProvider{}, testutil.NopLogger{})

	if _, err := e.Expand(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestExpandReturnsHypotheticalDocument(t *testing.T) {
	provider := &testutil.MockLLMProvider{
		GenerateFn: func(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
			return "  A hypothetical abstract about diffusion upscalers.  ", nil
		},
	}
	e := NewExpander(provider, testutil.NopLogger{})

	got, err := e.Expand(context.Background(), "models that upscale images")
	if err != nil {
		t.Fatal(err)
	}
	if got != "A hypothetical abstract about diffusion upscalers." {
		t.Errorf("unexpected expansion: %q", got)
	}
}

func TestExpandRetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	provider := &testutil.MockLLMProvider{
		GenerateFn: func(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("transient")
			}
			return "recovered abstract", nil
		},
	}
	e := NewExpander(provider, testutil.NopLogger{})

	got, err := e.Expand(context.Background(), "query")
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered abstract" {
		t.Errorf("got %q", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestExpandPropagatesAfterRetry(t *testing.T) {
	calls := 0
	provider := &testutil.MockLLMProvider{
		GenerateFn: func(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
			calls++
			return "", errors.New("provider down")
		},
	}
	e := NewExpander(provider, testutil.NopLogger{})

	if _, err := e.Expand(context.Background(), "query"); err == nil {
		t.Fatal("expected error after retry exhausted")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestExpandFallsBackToRawQueryOnBlankCompletion(t *testing.T) {
	provider := &testutil.MockLLMProvider{
		GenerateFn: func(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
			return "   ", nil
		},
	}
	e := NewExpander(provider, testutil.NopLogger{})

	got, err := e.Expand(context.Background(), "raw query")
	if err != nil {
		t.Fatal(err)
	}
	if got != "raw query" {
		t.Errorf("got %q, want raw query fallback", got)
	}
}
