package contract

import (
	"context"
	"time"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
)

// TimeBounds restricts similarity search to a publish/index date window.
// A zero Start or End leaves that side unbounded.
type TimeBounds struct {
	Start time.Time
	End   time.Time
}

// ScoredPaper wraps a Paper with its cosine similarity (1.0 = identical)
type ScoredPaper struct {
	Paper      *entity.Paper
	Similarity float64
}

type PaperRepository interface {
	Create(ctx context.Context, paper *entity.Paper) error
	Update(ctx context.Context, paper *entity.Paper) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns papers ordered by similarity descending,
	// threshold-filtered and optionally bounded on published_at.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, bounds *TimeBounds) ([]*ScoredPaper, error)
}
