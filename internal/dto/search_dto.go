package dto

import "github.com/google/uuid"

// RetrievalCandidate is a paper or model reduced to what retrieval needs.
// Produced transiently per query; only persisted as part of the rag_context
// attached to the assistant message that used it.
type RetrievalCandidate struct {
	Id         uuid.UUID `json:"id"`
	Collection string    `json:"collection"` // "papers" | "models"
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Similarity float64   `json:"similarity"`
}

type SearchRequest struct {
	Query               string   `json:"query" validate:"required"`
	SimilarityThreshold *float64 `json:"similarity_threshold" validate:"omitempty,gte=0,lte=1"`
	MatchCount          *int     `json:"match_count" validate:"omitempty,gt=0,lte=50"`
	TimeRange           string   `json:"time_range" validate:"omitempty,oneof=today week month year all"`
}

type SearchCollectionResult struct {
	TotalCount int                  `json:"total_count"`
	Candidates []RetrievalCandidate `json:"candidates"`
}

type SearchResponse struct {
	Papers SearchCollectionResult `json:"papers"`
	Models SearchCollectionResult `json:"models"`
}
