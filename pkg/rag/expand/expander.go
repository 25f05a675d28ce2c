package expand

import (
	"context"
	"fmt"
	"strings"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/pkg/llm"
)

// Expander rewrites a raw chat query into a hypothetical document (HyDE)
// before embedding. Document-shaped text lands closer to the stored paper and
// model abstracts than a terse question does.
type Expander struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

// NewExpander creates a new query expander
func NewExpander(provider llm.LLMProvider, logger logger.ILogger) *Expander {
	return &Expander{
		provider: provider,
		logger:   logger,
	}
}

// Expand returns the hypothetical document for a query. Retries once on
// provider failure, then propagates the error; the caller decides whether to
// fall back to embedding the raw query.
func (e *Expander) Expand(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty query")
	}

	prompt := fmt.Sprintf(constant.QueryExpansionPromptV1, query)

	expanded, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		e.logger.Warn("expand", "query expansion failed, retrying", map[string]interface{}{"error": err.Error()})
		expanded, err = e.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
		if err != nil {
			return "", fmt.Errorf("query expansion failed: %w", err)
		}
	}

	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		// A blank completion is useless; embed the raw query instead.
		return query, nil
	}

	return expanded, nil
}
