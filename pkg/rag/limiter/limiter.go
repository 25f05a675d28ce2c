package limiter

import (
	"context"
	"fmt"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Limiter enforces sliding-window caps on user-authored chat messages.
// Usage is derived from persisted message timestamps on every check, so there
// is no counter to drift or reset.
type Limiter struct {
	cfg config.RateLimitConfig
}

// NewLimiter creates a new rate limiter
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{cfg: cfg}
}

type window struct {
	Name  string
	Span  time.Duration
	Limit int
}

func (l *Limiter) windows() []window {
	// Tightest window first so the 429 names the cap that actually bites.
	return []window{
		{Name: "minute", Span: time.Minute, Limit: l.cfg.PerMinute},
		{Name: "hour", Span: time.Hour, Limit: l.cfg.PerHour},
		{Name: "day", Span: 24 * time.Hour, Limit: l.cfg.PerDay},
	}
}

// CheckSendAllowed verifies all windows before a message is accepted. Fails
// closed: if usage cannot be read, the send is refused.
func (l *Limiter) CheckSendAllowed(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	now := time.Now()

	stamps, err := l.loadUserMessageTimes(ctx, uow, userId, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("usage lookup failed: %w", err)
	}

	for _, w := range l.windows() {
		used, oldest := countSince(stamps, now.Add(-w.Span))
		if used >= w.Limit {
			return &dto.LimitExceededError{
				Window:     w.Name,
				Limit:      w.Limit,
				Used:       used,
				ResetAfter: oldest.Add(w.Span),
			}
		}
	}

	return nil
}

// UsageStatus reports per-window usage for client display. Fails open: on a
// read error every window reports zero so the UI never blocks on a transient
// fault. CheckSendAllowed remains the authoritative gate.
func (l *Limiter) UsageStatus(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) *dto.UsageStatusResponse {
	now := time.Now()

	stamps, err := l.loadUserMessageTimes(ctx, uow, userId, now.Add(-24*time.Hour))
	if err != nil {
		stamps = nil
	}

	status := &dto.UsageStatusResponse{Allowed: true}
	for _, w := range l.windows() {
		used, _ := countSince(stamps, now.Add(-w.Span))
		uw := dto.UsageWindow{Used: used, Limit: w.Limit}
		if used >= w.Limit {
			status.Allowed = false
		}

		switch w.Name {
		case "minute":
			status.Minute = uw
		case "hour":
			status.Hour = uw
		case "day":
			status.Day = uw
		}
	}

	return status
}

// loadUserMessageTimes returns creation times of the user's own messages
// (assistant replies do not count against the caps) since the given instant.
func (l *Limiter) loadUserMessageTimes(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, since time.Time) ([]time.Time, error) {
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	sessionIds := make([]uuid.UUID, len(sessions))
	for i, s := range sessions {
		sessionIds[i] = s.Id
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionIDs{ChatSessionIDs: sessionIds},
		specification.ByRole{Role: constant.ChatMessageRoleUser},
		specification.CreatedAfter{Time: since},
	)
	if err != nil {
		return nil, err
	}

	stamps := make([]time.Time, len(messages))
	for i, m := range messages {
		stamps[i] = m.CreatedAt
	}
	return stamps, nil
}

// countSince counts timestamps at or after cutoff and returns the oldest one
// inside the window (zero when none qualify).
func countSince(stamps []time.Time, cutoff time.Time) (int, time.Time) {
	var used int
	var oldest time.Time

	for _, t := range stamps {
		if t.Before(cutoff) {
			continue
		}
		used++
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	return used, oldest
}
