package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE"`
	Role          string         `gorm:"type:varchar(16);not null"`
	Content       string         `gorm:"type:text;not null"`
	RagContext    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
