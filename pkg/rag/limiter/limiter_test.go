package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/testutil"

	"github.com/google/uuid"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{PerMinute: 3, PerHour: 20, PerDay: 50}
}

func seedStore(userId uuid.UUID) (*testutil.MemoryStore, uuid.UUID) {
	sessionId := uuid.New()
	store := &testutil.MemoryStore{
		Sessions: []*entity.ChatSession{
			{Id: sessionId, UserId: userId, Title: "test", CreatedAt: time.Now().Add(-48 * time.Hour)},
		},
	}
	return store, sessionId
}

func addMessages(store *testutil.MemoryStore, sessionId uuid.UUID, role string, count int, age time.Duration) {
	for i := 0; i < count; i++ {
		store.Messages = append(store.Messages, &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			Role:          role,
			Content:       "msg",
			CreatedAt:     time.Now().Add(-age),
		})
	}
}

func TestCheckSendAllowedUnderCap(t *testing.T) {
	userId := uuid.New()
	store, sessionId := seedStore(userId)
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 2, 10*time.Second)

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	if err := l.CheckSendAllowed(context.Background(), uow, userId); err != nil {
		t.Fatalf("expected send allowed, got %v", err)
	}
}

func TestCheckSendAllowedBlocksAtMinuteCap(t *testing.T) {
	userId := uuid.New()
	store, sessionId := seedStore(userId)
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 3, 10*time.Second)

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	err := l.CheckSendAllowed(context.Background(), uow, userId)
	if err == nil {
		t.Fatal("expected limit error, got nil")
	}

	var limitErr *dto.LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitExceededError, got %T", err)
	}
	if limitErr.Window != "minute" {
		t.Errorf("Window = %q, want %q", limitErr.Window, "minute")
	}
	if limitErr.Used != 3 || limitErr.Limit != 3 {
		t.Errorf("Used/Limit = %d/%d, want 3/3", limitErr.Used, limitErr.Limit)
	}
	if !limitErr.ResetAfter.After(time.Now()) {
		t.Errorf("ResetAfter = %v, want after now", limitErr.ResetAfter)
	}
}

func TestCheckSendAllowedBlocksAtDayCap(t *testing.T) {
	userId := uuid.New()
	store, sessionId := seedStore(userId)
	// Old enough to clear minute and hour windows, young enough to count
	// against the day.
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 50, 2*time.Hour)

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	err := l.CheckSendAllowed(context.Background(), uow, userId)
	var limitErr *dto.LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitExceededError, got %v", err)
	}
	if limitErr.Window != "day" {
		t.Errorf("Window = %q, want %q", limitErr.Window, "day")
	}
}

func TestAssistantMessagesDoNotCount(t *testing.T) {
	userId := uuid.New()
	store, sessionId := seedStore(userId)
	addMessages(store, sessionId, constant.ChatMessageRoleAssistant, 10, 5*time.Second)

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	if err := l.CheckSendAllowed(context.Background(), uow, userId); err != nil {
		t.Fatalf("assistant replies should not consume quota, got %v", err)
	}
}

func TestCheckSendAllowedFailsClosed(t *testing.T) {
	userId := uuid.New()
	store, _ := seedStore(userId)
	store.MessageFindErr = errors.New("connection refused")

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	err := l.CheckSendAllowed(context.Background(), uow, userId)
	if err == nil {
		t.Fatal("expected error when usage is unreadable")
	}
	var limitErr *dto.LimitExceededError
	if errors.As(err, &limitErr) {
		t.Fatal("storage failure must not masquerade as a limit error")
	}
}

func TestUsageStatusFailsOpen(t *testing.T) {
	userId := uuid.New()
	store, _ := seedStore(userId)
	store.MessageFindErr = errors.New("connection refused")

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	status := l.UsageStatus(context.Background(), uow, userId)
	if !status.Allowed {
		t.Error("display status should fail open")
	}
	if status.Minute.Used != 0 || status.Hour.Used != 0 || status.Day.Used != 0 {
		t.Errorf("unexpected usage on failure: %+v", status)
	}
}

func TestUsageStatusCountsWindows(t *testing.T) {
	userId := uuid.New()
	store, sessionId := seedStore(userId)
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 2, 10*time.Second)
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 5, 30*time.Minute)
	addMessages(store, sessionId, constant.ChatMessageRoleUser, 4, 5*time.Hour)

	l := NewLimiter(testConfig())
	uow := testutil.NewMemoryFactory(store).NewUnitOfWork(context.Background())

	status := l.UsageStatus(context.Background(), uow, userId)
	if status.Minute.Used != 2 {
		t.Errorf("Minute.Used = %d, want 2", status.Minute.Used)
	}
	if status.Hour.Used != 7 {
		t.Errorf("Hour.Used = %d, want 7", status.Hour.Used)
	}
	if status.Day.Used != 11 {
		t.Errorf("Day.Used = %d, want 11", status.Day.Used)
	}
	if !status.Allowed {
		t.Error("expected Allowed under all caps")
	}
}
