package entity

import (
	"time"

	"github.com/google/uuid"
)

type Paper struct {
	Id          uuid.UUID
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
