package mapper

import (
	"time"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ResourceMapper struct{}

func NewResourceMapper() *ResourceMapper {
	return &ResourceMapper{}
}

func (m *ResourceMapper) PaperToEntity(p *model.Paper) *entity.Paper {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var values []float32
	if p.Embedding != nil {
		values = p.Embedding.Slice()
	}

	return &entity.Paper{
		Id:          p.Id,
		Title:       p.Title,
		Summary:     p.Summary,
		URL:         p.URL,
		PublishedAt: p.PublishedAt,
		Embedding:   values,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *ResourceMapper) PaperToModel(p *entity.Paper) *model.Paper {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var vec *pgvector.Vector
	if len(p.Embedding) > 0 {
		v := pgvector.NewVector(p.Embedding)
		vec = &v
	}

	return &model.Paper{
		Id:          p.Id,
		Title:       p.Title,
		Summary:     p.Summary,
		URL:         p.URL,
		PublishedAt: p.PublishedAt,
		Embedding:   vec,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *ResourceMapper) AiModelToEntity(a *model.AiModel) *entity.AiModel {
	if a == nil {
		return nil
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var values []float32
	if a.Embedding != nil {
		values = a.Embedding.Slice()
	}

	return &entity.AiModel{
		Id:        a.Id,
		Name:      a.Name,
		Summary:   a.Summary,
		URL:       a.URL,
		IndexedAt: a.IndexedAt,
		Embedding: values,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ResourceMapper) AiModelToModel(a *entity.AiModel) *model.AiModel {
	if a == nil {
		return nil
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var vec *pgvector.Vector
	if len(a.Embedding) > 0 {
		v := pgvector.NewVector(a.Embedding)
		vec = &v
	}

	return &model.AiModel{
		Id:        a.Id,
		Name:      a.Name,
		Summary:   a.Summary,
		URL:       a.URL,
		IndexedAt: a.IndexedAt,
		Embedding: vec,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
