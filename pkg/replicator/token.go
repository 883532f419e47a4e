package replicator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// TokenManager issues and validates single-use-cluster join tokens.
// Adapted from cuemby-warren/pkg/manager/token.go's TokenManager, dropped
// to a single role (mudforge has no manager/worker distinction — every
// node is a full Raft voter).
type TokenManager struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

// NewTokenManager creates an empty token manager.
func NewTokenManager() *TokenManager {
	return &TokenManager{tokens: make(map[string]time.Time)}
}

// Generate mints a random token valid for ttl.
func (m *TokenManager) Generate(ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.tokens[token] = time.Now().Add(ttl)
	m.mu.Unlock()
	return token, nil
}

// Validate checks a token's validity without consuming it — nodes may
// retry a join after a transient network failure.
func (m *TokenManager) Validate(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false, fmt.Errorf("unknown token")
	}
	if time.Now().After(expiry) {
		delete(m.tokens, token)
		return false, fmt.Errorf("token expired")
	}
	return true, nil
}

// Revoke invalidates a token immediately.
func (m *TokenManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}
