package testutil

import (
	"context"
	"math"
	"sort"
	"time"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/contract"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory stand-in for the database, shared by a
// MemoryFactory's units of work. Repositories interpret the same
// specification types the gorm implementations translate to SQL.
type MemoryStore struct {
	Sessions []*entity.ChatSession
	Messages []*entity.ChatMessage
	Papers   []*entity.Paper
	Models   []*entity.AiModel

	// Error injection
	SessionFindErr error
	MessageFindErr error
}

// MemoryFactory hands out units of work over one shared MemoryStore
type MemoryFactory struct {
	Store *MemoryStore
}

func NewMemoryFactory(store *MemoryStore) *MemoryFactory {
	return &MemoryFactory{Store: store}
}

func (f *MemoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUnitOfWork{store: f.Store}
}

// memoryUnitOfWork snapshots the store on Begin and restores it on Rollback,
// so transactional tests see real all-or-nothing behavior.
type memoryUnitOfWork struct {
	store     *MemoryStore
	snapshot  *MemoryStore
	committed bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	u.snapshot = &MemoryStore{
		Sessions: append([]*entity.ChatSession(nil), u.store.Sessions...),
		Messages: append([]*entity.ChatMessage(nil), u.store.Messages...),
		Papers:   append([]*entity.Paper(nil), u.store.Papers...),
		Models:   append([]*entity.AiModel(nil), u.store.Models...),
	}
	u.committed = false
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	u.committed = true
	u.snapshot = nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.committed || u.snapshot == nil {
		return nil
	}
	u.store.Sessions = u.snapshot.Sessions
	u.store.Messages = u.snapshot.Messages
	u.store.Papers = u.snapshot.Papers
	u.store.Models = u.snapshot.Models
	u.snapshot = nil
	return nil
}

func (u *memoryUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return &memorySessionRepo{store: u.store}
}

func (u *memoryUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &memoryMessageRepo{store: u.store}
}

func (u *memoryUnitOfWork) PaperRepository() contract.PaperRepository {
	return &memoryPaperRepo{store: u.store}
}

func (u *memoryUnitOfWork) AiModelRepository() contract.AiModelRepository {
	return &memoryModelRepo{store: u.store}
}

// --- Sessions ---

type memorySessionRepo struct {
	store *MemoryStore
}

func (r *memorySessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	copied := *session
	r.store.Sessions = append(r.store.Sessions, &copied)
	return nil
}

func (r *memorySessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	for i, s := range r.store.Sessions {
		if s.Id == session.Id {
			copied := *session
			r.store.Sessions[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.Sessions[:0]
	for _, s := range r.store.Sessions {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.store.Sessions = kept
	return nil
}

func (r *memorySessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	if r.store.SessionFindErr != nil {
		return nil, r.store.SessionFindErr
	}
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	copied := *matches[0]
	return &copied, nil
}

func (r *memorySessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	if r.store.SessionFindErr != nil {
		return nil, r.store.SessionFindErr
	}

	var matches []*entity.ChatSession
	for _, s := range r.store.Sessions {
		if sessionMatches(s, specs) {
			matches = append(matches, s)
		}
	}
	applySessionOrder(matches, specs)
	return matches, nil
}

func (r *memorySessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func sessionMatches(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		case specification.CreatedAfter:
			if s.CreatedAt.Before(v.Time) {
				return false
			}
		}
	}
	return true
}

func applySessionOrder(sessions []*entity.ChatSession, specs []specification.Specification) {
	for _, spec := range specs {
		order, ok := spec.(specification.OrderBy)
		if !ok {
			continue
		}

		var key func(*entity.ChatSession) time.Time
		switch order.Field {
		case "created_at":
			key = func(s *entity.ChatSession) time.Time { return s.CreatedAt }
		case "updated_at":
			// The gorm model's autoUpdateTime sets updated_at on insert, so
			// the column is never NULL; the fake coalesces nil to created_at.
			key = func(s *entity.ChatSession) time.Time {
				if s.UpdatedAt != nil {
					return *s.UpdatedAt
				}
				return s.CreatedAt
			}
		default:
			continue
		}

		sort.SliceStable(sessions, func(i, j int) bool {
			if order.Desc {
				return key(sessions[i]).After(key(sessions[j]))
			}
			return key(sessions[i]).Before(key(sessions[j]))
		})
	}
}

// --- Messages ---

type memoryMessageRepo struct {
	store *MemoryStore
}

func (r *memoryMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	copied := *message
	r.store.Messages = append(r.store.Messages, &copied)
	return nil
}

func (r *memoryMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	kept := r.store.Messages[:0]
	for _, m := range r.store.Messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.Messages = kept
	return nil
}

func (r *memoryMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	copied := *matches[0]
	return &copied, nil
}

func (r *memoryMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	if r.store.MessageFindErr != nil {
		return nil, r.store.MessageFindErr
	}

	var matches []*entity.ChatMessage
	for _, m := range r.store.Messages {
		if messageMatches(m, specs) {
			matches = append(matches, m)
		}
	}
	applyMessageOrder(matches, specs)
	return matches, nil
}

func (r *memoryMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func messageMatches(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if m.Id != v.ID {
				return false
			}
		case specification.ByChatSessionID:
			if m.ChatSessionId != v.ChatSessionID {
				return false
			}
		case specification.ByChatSessionIDs:
			found := false
			for _, id := range v.ChatSessionIDs {
				if m.ChatSessionId == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case specification.ByRole:
			if m.Role != v.Role {
				return false
			}
		case specification.CreatedAfter:
			if m.CreatedAt.Before(v.Time) {
				return false
			}
		}
	}
	return true
}

func applyMessageOrder(messages []*entity.ChatMessage, specs []specification.Specification) {
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" {
			sort.SliceStable(messages, func(i, j int) bool {
				if order.Desc {
					return messages[i].CreatedAt.After(messages[j].CreatedAt)
				}
				return messages[i].CreatedAt.Before(messages[j].CreatedAt)
			})
		}
	}
}

// --- Papers ---

type memoryPaperRepo struct {
	store *MemoryStore
}

func (r *memoryPaperRepo) Create(ctx context.Context, paper *entity.Paper) error {
	copied := *paper
	r.store.Papers = append(r.store.Papers, &copied)
	return nil
}

func (r *memoryPaperRepo) Update(ctx context.Context, paper *entity.Paper) error {
	for i, p := range r.store.Papers {
		if p.Id == paper.Id {
			copied := *paper
			r.store.Papers[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *memoryPaperRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.Papers[:0]
	for _, p := range r.store.Papers {
		if p.Id != id {
			kept = append(kept, p)
		}
	}
	r.store.Papers = kept
	return nil
}

func (r *memoryPaperRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error) {
	for _, p := range r.store.Papers {
		if paperMatches(p, specs) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryPaperRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	var matches []*entity.Paper
	for _, p := range r.store.Papers {
		if paperMatches(p, specs) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (r *memoryPaperRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func (r *memoryPaperRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64, bounds *contract.TimeBounds) ([]*contract.ScoredPaper, error) {
	var scored []*contract.ScoredPaper
	for _, p := range r.store.Papers {
		if len(p.Embedding) == 0 {
			continue
		}
		if bounds != nil && outsideBounds(p.PublishedAt, bounds) {
			continue
		}
		sim := CosineSimilarity(emb, p.Embedding)
		if sim >= threshold {
			scored = append(scored, &contract.ScoredPaper{Paper: p, Similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func paperMatches(p *entity.Paper, specs []specification.Specification) bool {
	for _, spec := range specs {
		if v, ok := spec.(specification.ByID); ok && p.Id != v.ID {
			return false
		}
	}
	return true
}

// --- Models ---

type memoryModelRepo struct {
	store *MemoryStore
}

func (r *memoryModelRepo) Create(ctx context.Context, model *entity.AiModel) error {
	copied := *model
	r.store.Models = append(r.store.Models, &copied)
	return nil
}

func (r *memoryModelRepo) Update(ctx context.Context, model *entity.AiModel) error {
	for i, m := range r.store.Models {
		if m.Id == model.Id {
			copied := *model
			r.store.Models[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *memoryModelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.Models[:0]
	for _, m := range r.store.Models {
		if m.Id != id {
			kept = append(kept, m)
		}
	}
	r.store.Models = kept
	return nil
}

func (r *memoryModelRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error) {
	for _, m := range r.store.Models {
		if modelMatches(m, specs) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryModelRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error) {
	var matches []*entity.AiModel
	for _, m := range r.store.Models {
		if modelMatches(m, specs) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (r *memoryModelRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func (r *memoryModelRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64, bounds *contract.TimeBounds) ([]*contract.ScoredAiModel, error) {
	var scored []*contract.ScoredAiModel
	for _, m := range r.store.Models {
		if len(m.Embedding) == 0 {
			continue
		}
		if bounds != nil && outsideBounds(m.IndexedAt, bounds) {
			continue
		}
		sim := CosineSimilarity(emb, m.Embedding)
		if sim >= threshold {
			scored = append(scored, &contract.ScoredAiModel{Model: m, Similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func modelMatches(m *entity.AiModel, specs []specification.Specification) bool {
	for _, spec := range specs {
		if v, ok := spec.(specification.ByID); ok && m.Id != v.ID {
			return false
		}
	}
	return true
}

func outsideBounds(t time.Time, bounds *contract.TimeBounds) bool {
	if !bounds.Start.IsZero() && t.Before(bounds.Start) {
		return true
	}
	if !bounds.End.IsZero() && t.After(bounds.End) {
		return true
	}
	return false
}

// CosineSimilarity matches the pgvector cosine operator's 1-distance scoring
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
