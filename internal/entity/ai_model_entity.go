package entity

import (
	"time"

	"github.com/google/uuid"
)

// AiModel is a machine-learning model record in the directory (not to be
// confused with the persistence layer's gorm models).
type AiModel struct {
	Id        uuid.UUID
	Name      string
	Summary   string
	URL       string
	IndexedAt time.Time
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt *time.Time
}
