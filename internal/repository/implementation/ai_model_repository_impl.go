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

type AiModelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResourceMapper
}

func NewAiModelRepository(db *gorm.DB) contract.AiModelRepository {
	return &AiModelRepositoryImpl{
		db:     db,
		mapper: mapper.NewResourceMapper(),
	}
}

func (r *AiModelRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AiModelRepositoryImpl) Create(ctx context.Context, aiModel *entity.AiModel) error {
	m := r.mapper.AiModelToModel(aiModel)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*aiModel = *r.mapper.AiModelToEntity(m)
	return nil
}

func (r *AiModelRepositoryImpl) Update(ctx context.Context, aiModel *entity.AiModel) error {
	m := r.mapper.AiModelToModel(aiModel)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*aiModel = *r.mapper.AiModelToEntity(m)
	return nil
}

func (r *AiModelRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AiModel{}, id).Error
}

func (r *AiModelRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error) {
	var m model.AiModel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AiModelToEntity(&m), nil
}

func (r *AiModelRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error) {
	var models []*model.AiModel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AiModel, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AiModelToEntity(m)
	}
	return entities, nil
}

func (r *AiModelRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AiModel{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AiModelRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, bounds *contract.TimeBounds) ([]*contract.ScoredAiModel, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.AiModel
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("ai_models").
		Select("ai_models.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold)

	if bounds != nil {
		if !bounds.Start.IsZero() {
			query = query.Where("indexed_at >= ?", bounds.Start)
		}
		if !bounds.End.IsZero() {
			query = query.Where("indexed_at <= ?", bounds.End)
		}
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredAiModel, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredAiModel{
			Model:      r.mapper.AiModelToEntity(&res.AiModel),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
