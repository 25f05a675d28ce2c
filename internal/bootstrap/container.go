package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/controller"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/pkg/serverutils"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/llm/factory"
	"ai-discovery-be/pkg/rag/history"
	"ai-discovery-be/pkg/rag/limiter"
	"ai-discovery-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	SearchController   controller.ISearchController
	ResourceController controller.IResourceController

	// HTTP error mapping (wired into fiber.Config)
	ErrorHandler fiber.ErrorHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Redis (conversation history cache)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	historyCache := history.NewCache(rdb, 10*time.Minute)

	// 5. Domain Components
	rateLimiter := limiter.NewLimiter(cfg.RateLimit)
	searchOrchestrator := search.NewOrchestrator(sysLogger)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.EmbedResourceTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedResourceTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	chatService := service.NewChatService(
		uowFactory,
		embeddingProvider,
		llmProvider,
		rateLimiter,
		searchOrchestrator,
		historyCache,
		cfg.Search,
		sysLogger,
	)
	searchService := service.NewSearchService(
		uowFactory,
		embeddingProvider,
		searchOrchestrator,
		cfg.Search,
		sysLogger,
	)
	resourceService := service.NewResourceService(uowFactory, publisherService)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		SearchController:   controller.NewSearchController(searchService),
		ResourceController: controller.NewResourceController(resourceService),

		ErrorHandler: serverutils.NewErrorHandler(sysLogger),

		ConsumerService: consumerService,

		Logger: sysLogger,
	}
}
