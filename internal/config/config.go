package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini       string
	EmbedResourceTopic string // Resource embedding topic
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "gemini"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

// RateLimitConfig holds the sliding-window caps for user-authored chat
// messages. Each cap bounds messages in the trailing window.
type RateLimitConfig struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

type SearchConfig struct {
	SimilarityThreshold float64
	MatchCount          int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			EmbedResourceTopic: getEnv("EMBED_RESOURCE_TOPIC_NAME", "EMBED_RESOURCE"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("CHAT_LIMIT_PER_MINUTE", 3),
			PerHour:   getEnvAsInt("CHAT_LIMIT_PER_HOUR", 20),
			PerDay:    getEnvAsInt("CHAT_LIMIT_PER_DAY", 50),
		},
		Search: SearchConfig{
			SimilarityThreshold: getEnvAsFloat("SEARCH_SIMILARITY_THRESHOLD", 0.7),
			MatchCount:          getEnvAsInt("SEARCH_MATCH_COUNT", 8),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
