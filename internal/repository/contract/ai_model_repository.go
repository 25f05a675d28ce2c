package contract

import (
	"context"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredAiModel wraps an AiModel with its cosine similarity
type ScoredAiModel struct {
	Model      *entity.AiModel
	Similarity float64
}

type AiModelRepository interface {
	Create(ctx context.Context, model *entity.AiModel) error
	Update(ctx context.Context, model *entity.AiModel) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore mirrors PaperRepository but bounds on indexed_at.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, bounds *TimeBounds) ([]*ScoredAiModel, error)
}
