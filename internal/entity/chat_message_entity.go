package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is immutable once created. RagContext carries the serialized
// retrieval candidates that grounded an assistant reply; nil for user messages.
type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	RagContext    []byte
	CreatedAt     time.Time
}
