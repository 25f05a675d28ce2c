package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/rag/expand"
	"ai-discovery-be/pkg/rag/history"
	"ai-discovery-be/pkg/rag/limiter"
	"ai-discovery-be/pkg/rag/prompt"
	"ai-discovery-be/pkg/rag/search"
	"ai-discovery-be/pkg/utils"

	"github.com/google/uuid"
)

// ErrSessionNotFound covers both a missing session and one owned by another
// user, so a response never reveals whether a guessed id exists.
var ErrSessionNotFound = errors.New("session not found or access denied")

// historyWindow caps how many prior messages feed the LLM per turn.
const historyWindow = 20

// IChatService defines the chat service interface
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetSessionResponse, error)
	UpdateSessionTitle(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionTitleRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetUsage(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error)
}

// chatService coordinates the RAG chat turn
type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	logger            logger.ILogger
	searchCfg         config.SearchConfig

	// Domain components
	rateLimiter        *limiter.Limiter
	queryExpander      *expand.Expander
	searchOrchestrator *search.Orchestrator
	historyCache       *history.Cache
}

// NewChatService creates a new chat service with all domain components
func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	rateLimiter *limiter.Limiter,
	searchOrchestrator *search.Orchestrator,
	historyCache *history.Cache,
	searchCfg config.SearchConfig,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		logger:            logger,
		searchCfg:         searchCfg,

		rateLimiter:        rateLimiter,
		queryExpander:      expand.NewExpander(llmProvider, logger),
		searchOrchestrator: searchOrchestrator,
		historyCache:       historyCache,
	}
}

// CreateSession creates a new empty chat session
func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = constant.DefaultSessionTitle
	}

	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: session.Id, Title: session.Title}, nil
}

// GetAllSessions retrieves the user's sessions, most recently active first.
// A session that just received a message sorts above newer-but-idle ones.
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetSession returns one session with its full message history in creation order
func (cs *chatService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.resolveOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageDTOs := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, m := range messages {
		messageDTOs = append(messageDTOs, cs.toMessageDTO(m))
	}

	return &dto.GetSessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Messages:  messageDTOs,
	}, nil
}

// UpdateSessionTitle renames a session the user owns
func (cs *chatService) UpdateSessionTitle(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionTitleRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.resolveOwnedSession(ctx, uow, userId, req.Id)
	if err != nil {
		return err
	}

	now := time.Now()
	session.Title = req.Title
	session.UpdatedAt = &now

	return uow.ChatSessionRepository().Update(ctx, session)
}

// DeleteSession removes a session and all of its messages
func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.resolveOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if err := cs.historyCache.DeleteHistory(ctx, sessionId); err != nil {
		cs.logger.Warn("chat", "failed to drop cached history", map[string]interface{}{"error": err.Error()})
	}

	return nil
}

// GetUsage reports sliding-window usage for display. Never fails: the send
// path re-checks authoritatively anyway.
func (cs *chatService) GetUsage(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return cs.rateLimiter.UsageStatus(ctx, uow, userId), nil
}

// SendChat runs one full chat turn: gate, resolve session, retrieve, generate,
// persist. The user and assistant messages commit atomically, so a generation
// failure leaves no half-written turn behind.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// Gate first; fails closed on storage errors.
	if err := cs.rateLimiter.CheckSendAllowed(ctx, uow, userId); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, isNew, err := cs.resolveOrCreateSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	firstMessage := isNew
	if !isNew {
		count, err := uow.ChatMessageRepository().Count(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
		)
		if err != nil {
			return nil, err
		}
		firstMessage = count == 0
	}

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       req.Content,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	// Retrieval reads run on their own unit of work: inside the transaction
	// the two collection queries would serialize on its single connection.
	searchUow := cs.uowFactory.NewUnitOfWork(ctx)
	candidates, err := cs.retrieve(ctx, searchUow, req.Content)
	if err != nil {
		return nil, err
	}

	hist, err := cs.loadConversationHistory(ctx, uow, session.Id, userMessage.Id)
	if err != nil {
		cs.logger.Warn("chat", "failed to load history", map[string]interface{}{"error": err.Error()})
		hist = []llm.Message{}
	}

	groundedPrompt := prompt.NewGroundedBuilder(candidates, req.Content).Build()
	turn := append(hist, llm.Message{Role: constant.ChatMessageRoleUser, Content: groundedPrompt})

	reply, err := cs.llmProvider.Chat(ctx, turn, llm.WithTemperature(0.7))
	if err != nil {
		return nil, err
	}

	ragContext, err := json.Marshal(candidates)
	if err != nil {
		return nil, err
	}

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       reply,
		RagContext:    ragContext,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	if firstMessage {
		session.Title = utils.TruncateWithEllipsis(req.Content, constant.SessionTitleMaxLen)
	}
	touchedAt := time.Now()
	session.UpdatedAt = &touchedAt
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Drop the cached history; the next turn re-reads from the store.
	if err := cs.historyCache.DeleteHistory(ctx, session.Id); err != nil {
		cs.logger.Warn("chat", "failed to drop cached history", map[string]interface{}{"error": err.Error()})
	}

	sent := cs.toMessageDTO(&userMessage)
	replied := cs.toMessageDTO(&assistantMessage)

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		Sent:             &sent,
		Reply:            &replied,
	}, nil
}

// retrieve expands the query, embeds it, and fuses both collections. The
// expander retries once internally; if it still fails the turn fails, since
// embedding the raw query instead would silently change result quality.
func (cs *chatService) retrieve(ctx context.Context, uow unitofwork.UnitOfWork, query string) ([]dto.RetrievalCandidate, error) {
	toEmbed, err := cs.queryExpander.Expand(ctx, query)
	if err != nil {
		cs.logger.Warn("chat", "query expansion failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	embeddingRes, err := cs.embeddingProvider.Generate(ctx, toEmbed, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	results, err := cs.searchOrchestrator.Search(ctx, uow, embeddingRes.Embedding.Values, search.Options{
		Threshold:  cs.searchCfg.SimilarityThreshold,
		MatchCount: cs.searchCfg.MatchCount,
		TimeRange:  search.TimeRangeAll,
	})
	if err != nil {
		return nil, err
	}

	return results.Merged(), nil
}

// loadConversationHistory reads the session transcript through the redis
// cache. The just-persisted user message is excluded; it enters the turn via
// the grounded prompt instead.
func (cs *chatService) loadConversationHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, excludeId uuid.UUID) ([]llm.Message, error) {
	if cached, found, err := cs.historyCache.GetHistory(ctx, sessionId); err == nil && found {
		return cached, nil
	} else if err != nil {
		cs.logger.Warn("chat", "history cache read failed", map[string]interface{}{"error": err.Error()})
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	hist := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.Id == excludeId {
			continue
		}
		hist = append(hist, llm.Message{Role: m.Role, Content: m.Content})
	}

	if len(hist) > historyWindow {
		hist = hist[len(hist)-historyWindow:]
	}

	if err := cs.historyCache.SetHistory(ctx, sessionId, hist); err != nil {
		cs.logger.Warn("chat", "history cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return hist, nil
}

// resolveOrCreateSession returns the owned session for a given id, or creates
// a fresh one when the request carries no id.
func (cs *chatService) resolveOrCreateSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId *uuid.UUID) (*entity.ChatSession, bool, error) {
	if sessionId != nil {
		session, err := cs.resolveOwnedSession(ctx, uow, userId, *sessionId)
		if err != nil {
			return nil, false, err
		}
		return session, false, nil
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (cs *chatService) resolveOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (cs *chatService) toMessageDTO(m *entity.ChatMessage) dto.ChatMessageDTO {
	var ragContext []dto.RetrievalCandidate
	if len(m.RagContext) > 0 {
		if err := json.Unmarshal(m.RagContext, &ragContext); err != nil {
			cs.logger.Warn("chat", "invalid rag_context payload", map[string]interface{}{"message_id": m.Id})
			ragContext = nil
		}
	}

	return dto.ChatMessageDTO{
		Id:         m.Id,
		Role:       m.Role,
		Content:    m.Content,
		RagContext: ragContext,
		CreatedAt:  m.CreatedAt,
	}
}
