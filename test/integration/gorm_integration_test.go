package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.PaperRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Paper Repository", func(t *testing.T) {
		count, err := uow.PaperRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Paper count: %d", count)
	})

	t.Run("Check AiModel Repository", func(t *testing.T) {
		count, err := uow.AiModelRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("AiModel count: %d", count)
	})

	t.Run("Check Transactional Session With Message", func(t *testing.T) {
		ctx := context.Background()
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:     sessionId,
			UserId: uuid.New(),
			Title:  constant.DefaultSessionTitle,
		}

		err = uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		message := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			Role:          constant.ChatMessageRoleUser,
			Content:       "integration test message",
		}

		err = uow.ChatMessageRepository().Create(ctx, message)
		assert.NoError(t, err)

		count, err := uow.ChatMessageRepository().Count(ctx,
			specification.ByChatSessionID{ChatSessionID: sessionId})
		assert.NoError(t, err)
		assert.EqualValues(t, 1, count)

		t.Log("Successfully created Session with Message in Transaction (rolled back)")
	})
}
