package unitofwork

import (
	"context"

	"ai-discovery-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	PaperRepository() contract.PaperRepository
	AiModelRepository() contract.AiModelRepository
}
