package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatMessageDTO struct {
	Id         uuid.UUID            `json:"id"`
	Role       string               `json:"role"`
	Content    string               `json:"content"`
	RagContext []RetrievalCandidate `json:"rag_context,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

type GetSessionResponse struct {
	Id        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at"`
	Messages  []ChatMessageDTO `json:"messages"`
}

type UpdateSessionTitleRequest struct {
	Id    uuid.UUID `json:"-"`
	Title string    `json:"title" validate:"required,max=200"`
}

type SendChatRequest struct {
	// ChatSessionId is optional: a nil id starts a new conversation.
	ChatSessionId *uuid.UUID `json:"chat_session_id"`
	Content       string     `json:"content" validate:"required"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID       `json:"chat_session_id"`
	ChatSessionTitle string          `json:"title"`
	Sent             *ChatMessageDTO `json:"sent"`
	Reply            *ChatMessageDTO `json:"reply"`
}
