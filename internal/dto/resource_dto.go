package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePaperRequest struct {
	Title       string    `json:"title" validate:"required"`
	Summary     string    `json:"summary" validate:"required"`
	URL         string    `json:"url" validate:"omitempty,url"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
}

type CreateModelRequest struct {
	Name      string    `json:"name" validate:"required"`
	Summary   string    `json:"summary" validate:"required"`
	URL       string    `json:"url" validate:"omitempty,url"`
	IndexedAt time.Time `json:"indexed_at"`
}

type CreateResourceResponse struct {
	Id uuid.UUID `json:"id"`
}

// PublishEmbedResourceMessage is the payload on the embed-resource topic.
type PublishEmbedResourceMessage struct {
	ResourceId uuid.UUID `json:"resource_id"`
	Collection string    `json:"collection"` // "papers" | "models"
}
