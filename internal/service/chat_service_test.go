package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/contract"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/internal/testutil"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/rag/history"
	"ai-discovery-be/pkg/rag/limiter"
	"ai-discovery-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatService(store *testutil.MemoryStore, llmProvider llm.LLMProvider) service.IChatService {
	return newTestChatServiceWithFactory(testutil.NewMemoryFactory(store), llmProvider)
}

func newTestChatServiceWithFactory(factory unitofwork.RepositoryFactory, llmProvider llm.LLMProvider) service.IChatService {
	if llmProvider == nil {
		llmProvider = &testutil.MockLLMProvider{}
	}
	return service.NewChatService(
		factory,
		&testutil.MockEmbeddingProvider{},
		llmProvider,
		limiter.NewLimiter(config.RateLimitConfig{PerMinute: 3, PerHour: 20, PerDay: 50}),
		search.NewOrchestrator(testutil.NopLogger{}),
		history.NewCache(nil, 0), // nil redis: cache becomes a no-op
		config.SearchConfig{SimilarityThreshold: 0.7, MatchCount: 8},
		testutil.NopLogger{},
	)
}

func storeWithPaper() *testutil.MemoryStore {
	return &testutil.MemoryStore{
		Papers: []*entity.Paper{
			{
				Id:          uuid.New(),
				Title:       "Real-ESRGAN",
				Summary:     "Practical blind super-resolution.",
				Embedding:   []float32{1, 0, 0},
				PublishedAt: time.Now(),
			},
		},
	}
}

func TestSendChatFirstTurnCreatesSessionAndGroundsReply(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	content := strings.Repeat("What models can upscale old family photos? ", 3) // > 50 chars

	res, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: content})
	require.NoError(t, err)

	// Session auto-created with a truncated title
	require.Len(t, store.Sessions, 1)
	sess := store.Sessions[0]
	assert.Equal(t, userId, sess.UserId)
	wantTitle := string([]rune(content)[:constant.SessionTitleMaxLen]) + "..."
	assert.Equal(t, wantTitle, sess.Title)
	assert.NotNil(t, sess.UpdatedAt)

	// User then assistant, both in the session
	require.Len(t, store.Messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, store.Messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, store.Messages[1].Role)
	assert.False(t, store.Messages[1].CreatedAt.Before(store.Messages[0].CreatedAt))

	// Assistant message carries the retrieval context
	assert.NotEmpty(t, store.Messages[1].RagContext)
	require.NotNil(t, res.Reply)
	require.NotEmpty(t, res.Reply.RagContext)
	assert.Equal(t, "Real-ESRGAN", res.Reply.RagContext[0].Title)

	assert.Equal(t, sess.Id, res.ChatSessionId)
	assert.Equal(t, wantTitle, res.ChatSessionTitle)
}

func TestSendChatShortFirstMessageKeepsFullTitle(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)

	_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Content: "short question"})
	require.NoError(t, err)

	require.Len(t, store.Sessions, 1)
	assert.Equal(t, "short question", store.Sessions[0].Title)
}

func TestSendChatSecondTurnKeepsTitle(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	first, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "first question"})
	require.NoError(t, err)

	sessionId := first.ChatSessionId
	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Content:       "a completely different follow-up",
	})
	require.NoError(t, err)

	assert.Equal(t, "first question", store.Sessions[0].Title)
	assert.Len(t, store.Messages, 4)
}

func TestSendChatAtCapRejectsWithoutPersisting(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	sessionId := uuid.New()
	store.Sessions = append(store.Sessions, &entity.ChatSession{
		Id: sessionId, UserId: userId, Title: "t", CreatedAt: time.Now().Add(-time.Hour),
	})
	for i := 0; i < 3; i++ {
		store.Messages = append(store.Messages, &entity.ChatMessage{
			Id: uuid.New(), ChatSessionId: sessionId,
			Role: constant.ChatMessageRoleUser, Content: "m",
			CreatedAt: time.Now().Add(-5 * time.Second),
		})
	}

	_, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Content:       "one more",
	})

	var limitErr *dto.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "minute", limitErr.Window)
	assert.Len(t, store.Messages, 3, "rejected send must not persist anything")
}

func TestSendChatGenerationFailureRollsBack(t *testing.T) {
	store := storeWithPaper()
	failing := &testutil.MockLLMProvider{
		ChatFn: func(ctx context.Context, hist []llm.Message, opts ...llm.Option) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	svc := newTestChatService(store, failing)

	_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Content: "hello"})
	require.Error(t, err)

	assert.Empty(t, store.Sessions, "failed turn must roll the new session back")
	assert.Empty(t, store.Messages, "failed turn must not leave a dangling user message")
}

func TestSendChatExpansionFailureFailsTurn(t *testing.T) {
	store := storeWithPaper()
	calls := 0
	failing := &testutil.MockLLMProvider{
		GenerateFn: func(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
			calls++
			return "", errors.New("expansion backend down")
		},
	}
	svc := newTestChatService(store, failing)

	_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "expansion should be retried exactly once before giving up")

	assert.Empty(t, store.Sessions)
	assert.Empty(t, store.Messages, "no raw-query fallback: the turn fails cleanly")
}

func TestSessionOwnershipInvariant(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)

	owner := uuid.New()
	intruder := uuid.New()
	sessionId := uuid.New()
	store.Sessions = append(store.Sessions, &entity.ChatSession{
		Id: sessionId, UserId: owner, Title: "private", CreatedAt: time.Now(),
	})

	_, err := svc.GetSession(context.Background(), intruder, sessionId)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	err = svc.UpdateSessionTitle(context.Background(), intruder, &dto.UpdateSessionTitleRequest{Id: sessionId, Title: "mine now"})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	err = svc.DeleteSession(context.Background(), intruder, sessionId)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	_, err = svc.SendChat(context.Background(), intruder, &dto.SendChatRequest{ChatSessionId: &sessionId, Content: "hi"})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	assert.Equal(t, "private", store.Sessions[0].Title)
}

func TestDeleteSessionCascades(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	res, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "to be deleted"})
	require.NoError(t, err)
	require.Len(t, store.Messages, 2)

	require.NoError(t, svc.DeleteSession(context.Background(), userId, res.ChatSessionId))

	assert.Empty(t, store.Sessions)
	assert.Empty(t, store.Messages, "messages must cascade with the session")

	sessions, err := svc.GetAllSessions(context.Background(), userId)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestGetSessionIsIdempotent(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	first, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "question one"})
	require.NoError(t, err)
	sessionId := first.ChatSessionId
	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{ChatSessionId: &sessionId, Content: "question two"})
	require.NoError(t, err)

	a, err := svc.GetSession(context.Background(), userId, sessionId)
	require.NoError(t, err)
	b, err := svc.GetSession(context.Background(), userId, sessionId)
	require.NoError(t, err)

	require.Equal(t, len(a.Messages), len(b.Messages))
	for i := range a.Messages {
		assert.Equal(t, a.Messages[i].Id, b.Messages[i].Id)
	}
	// Creation order: user, assistant, user, assistant
	require.Len(t, a.Messages, 4)
	assert.Equal(t, constant.ChatMessageRoleUser, a.Messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, a.Messages[1].Role)
	assert.Equal(t, constant.ChatMessageRoleUser, a.Messages[2].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, a.Messages[3].Role)
}

func TestGetUsageReflectsRecentSends(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	_, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "hello"})
	require.NoError(t, err)

	usage, err := svc.GetUsage(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Minute.Used)
	assert.Equal(t, 1, usage.Hour.Used)
	assert.Equal(t, 1, usage.Day.Used)
	assert.True(t, usage.Allowed)
	assert.Equal(t, 3, usage.Minute.Limit)
}

func TestGetAllSessionsOrdersByLastActivity(t *testing.T) {
	store := storeWithPaper()
	svc := newTestChatService(store, nil)
	userId := uuid.New()

	older := &entity.ChatSession{
		Id: uuid.New(), UserId: userId, Title: "older", CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	newer := &entity.ChatSession{
		Id: uuid.New(), UserId: userId, Title: "newer", CreatedAt: time.Now().Add(-1 * time.Hour),
	}
	store.Sessions = append(store.Sessions, older, newer)

	// A message into the older session makes it the most recently active.
	_, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{ChatSessionId: &older.Id, Content: "reviving an old thread"})
	require.NoError(t, err)

	sessions, err := svc.GetAllSessions(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, older.Id, sessions[0].Id, "session with the latest message must list first")
	assert.Equal(t, newer.Id, sessions[1].Id)
}

// recordingFactory tracks which units of work had an active transaction when
// the paper repository was handed out.
type recordingFactory struct {
	inner *testutil.MemoryFactory
	uows  []*recordingUow
}

func (f *recordingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	u := &recordingUow{UnitOfWork: f.inner.NewUnitOfWork(ctx)}
	f.uows = append(f.uows, u)
	return u
}

type recordingUow struct {
	unitofwork.UnitOfWork
	begun              bool
	paperAccessed      bool
	paperAccessedInTx  bool
}

func (u *recordingUow) Begin(ctx context.Context) error {
	u.begun = true
	return u.UnitOfWork.Begin(ctx)
}

func (u *recordingUow) PaperRepository() contract.PaperRepository {
	u.paperAccessed = true
	if u.begun {
		u.paperAccessedInTx = true
	}
	return u.UnitOfWork.PaperRepository()
}

func TestSendChatRetrievalReadsOutsideTransaction(t *testing.T) {
	store := storeWithPaper()
	factory := &recordingFactory{inner: testutil.NewMemoryFactory(store)}
	svc := newTestChatServiceWithFactory(factory, nil)

	res, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Content: "image upscaling"})
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	assert.NotEmpty(t, res.Reply.RagContext, "retrieval must still ground the reply")

	accessed := false
	for _, u := range factory.uows {
		if u.paperAccessed {
			accessed = true
		}
		assert.False(t, u.paperAccessedInTx, "collection searches must not run on the transaction's connection")
	}
	require.True(t, accessed, "the turn is expected to search the papers collection")
}
