package dto

import "time"

// UsageWindow reports one sliding window for client display.
type UsageWindow struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UsageStatusResponse is returned by GET /api/chat/v1/usage. Display only:
// the authoritative gate is re-evaluated on every send.
type UsageStatusResponse struct {
	Minute  UsageWindow `json:"minute"`
	Hour    UsageWindow `json:"hour"`
	Day     UsageWindow `json:"day"`
	Allowed bool        `json:"allowed"`
}

// --- Limit Exceeded Error Types ---

// LimitExceededError is a custom error that carries usage details
type LimitExceededError struct {
	Window     string    `json:"window"` // "minute" | "hour" | "day"
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *LimitExceededError) Error() string {
	return "chat message limit exceeded for the trailing " + e.Window
}

// LimitExceededData is the data payload for 429 responses
type LimitExceededData struct {
	Window     string    `json:"window"`
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	ResetAfter time.Time `json:"reset_after"`
}

// LimitExceededResponse is the full 429 response structure
type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
