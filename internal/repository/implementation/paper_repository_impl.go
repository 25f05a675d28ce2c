package implementation

import (
	"context"
	"errors"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/mapper"
	"ai-discovery-be/internal/model"
	"ai-discovery-be/internal/repository/contract"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PaperRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResourceMapper
}

func NewPaperRepository(db *gorm.DB) contract.PaperRepository {
	return &PaperRepositoryImpl{
		db:     db,
		mapper: mapper.NewResourceMapper(),
	}
}

func (r *PaperRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaperRepositoryImpl) Create(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.PaperToModel(paper)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*paper = *r.mapper.PaperToEntity(m)
	return nil
}

func (r *PaperRepositoryImpl) Update(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.PaperToModel(paper)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*paper = *r.mapper.PaperToEntity(m)
	return nil
}

func (r *PaperRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Paper{}, id).Error
}

func (r *PaperRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error) {
	var m model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PaperToEntity(&m), nil
}

func (r *PaperRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	var models []*model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Paper, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PaperToEntity(m)
	}
	return entities, nil
}

func (r *PaperRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Paper{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore runs the pgvector cosine search with the threshold
// pushed into SQL. Cosine distance is 1 - cosine_similarity, so similarity is
// computed as 1 - (embedding <=> query_vector). The optional time bounds
// filter on published_at at the query level so result counts stay accurate
// for the requested window.
func (r *PaperRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, bounds *contract.TimeBounds) ([]*contract.ScoredPaper, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Paper
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("papers").
		Select("papers.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold)

	if bounds != nil {
		if !bounds.Start.IsZero() {
			query = query.Where("published_at >= ?", bounds.Start)
		}
		if !bounds.End.IsZero() {
			query = query.Where("published_at <= ?", bounds.End)
		}
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPaper, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPaper{
			Paper:      r.mapper.PaperToEntity(&res.Paper),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
