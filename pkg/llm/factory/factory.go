package factory

import (
	"fmt"

	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/llm/gemini"
	"ai-discovery-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, geminiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(geminiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
