// Package oracle defines the ContentOracle collaborator contract
// (spec §6.4): chat/image generation reached from the Sandbox via the
// Host API, rate-limited per session and metered per execution.
package oracle

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/cuemby/mudforge/pkg/muderrs"
)

// Tier selects model quality/cost tradeoff.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
)

// ChatMessage is one turn of a chat request.
type ChatMessage struct {
	Role    string
	Content string
}

// Oracle is the out-of-scope content generation collaborator; mudforge
// only depends on this interface, never a concrete provider.
type Oracle interface {
	Chat(ctx context.Context, messages []ChatMessage, tier Tier) (string, error)
	Image(ctx context.Context, prompt, style, size string) (string, error)
}

// PerSessionRateLimitRPM is the caller-side cap from spec §6.4.
const PerSessionRateLimitRPM = 60

// Limiter wraps an Oracle with the 60-calls/min-per-session cap, using
// golang.org/x/time/rate's token bucket — the idiomatic Go per-key rate
// limiter rather than a hand-rolled counter.
type Limiter struct {
	oracle  Oracle
	buckets map[string]*rate.Limiter
}

// NewLimiter wraps oracle with per-session limiting.
func NewLimiter(o Oracle) *Limiter {
	return &Limiter{oracle: o, buckets: make(map[string]*rate.Limiter)}
}

func (l *Limiter) bucketFor(sessionID string) *rate.Limiter {
	b, ok := l.buckets[sessionID]
	if !ok {
		b = rate.NewLimiter(rate.Limit(PerSessionRateLimitRPM)/60, PerSessionRateLimitRPM)
		l.buckets[sessionID] = b
	}
	return b
}

// Chat rate-limits then delegates to the wrapped Oracle.
func (l *Limiter) Chat(ctx context.Context, sessionID string, messages []ChatMessage, tier Tier) (string, error) {
	if !l.bucketFor(sessionID).Allow() {
		return "", &muderrs.OracleRejected{Reason: "per-session rate limit exceeded"}
	}
	if l.oracle == nil {
		return "", &muderrs.OracleUnavailable{}
	}
	return l.oracle.Chat(ctx, messages, tier)
}

// Image rate-limits then delegates to the wrapped Oracle.
func (l *Limiter) Image(ctx context.Context, sessionID string, prompt, style, size string) (string, error) {
	if !l.bucketFor(sessionID).Allow() {
		return "", &muderrs.OracleRejected{Reason: "per-session rate limit exceeded"}
	}
	if l.oracle == nil {
		return "", &muderrs.OracleUnavailable{}
	}
	return l.oracle.Image(ctx, prompt, style, size)
}
