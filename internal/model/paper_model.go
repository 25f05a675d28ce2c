package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Paper struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `gorm:"type:text;not null"`
	Summary     string    `gorm:"type:text"`
	URL         string    `gorm:"type:text"`
	PublishedAt time.Time `gorm:"index"`
	// Nullable: rows await the embedding consumer before they are searchable.
	Embedding *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

func (Paper) TableName() string {
	return "papers"
}
