// Package codestore implements the Code Store: content-addressed script
// source with reference counting and a grace-window GC sweep.
package codestore

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/cuemby/mudforge/pkg/log"
	"github.com/cuemby/mudforge/pkg/metrics"
	"github.com/cuemby/mudforge/pkg/store"
	"github.com/rs/zerolog"
)

// DefaultGraceWindow is how long a zero-refcount entry survives before
// the sweep removes it.
const DefaultGraceWindow = 24 * time.Hour

// CodeStore is the per-process content-addressed source repository.
type CodeStore struct {
	store  *store.Store
	logger zerolog.Logger
	grace  time.Duration
	mu     sync.Mutex
	stopCh chan struct{}
}

// New creates a CodeStore with the default grace window.
func New(st *store.Store) *CodeStore {
	return &CodeStore{
		store:  st,
		logger: log.WithComponent("codestore"),
		grace:  DefaultGraceWindow,
		stopCh: make(chan struct{}),
	}
}

// Store hashes source and inserts it if not already present, idempotently.
func (c *CodeStore) Store(source string) (string, error) {
	sum := sha256.Sum256([]byte(source))
	hash := hex.EncodeToString(sum[:])
	if err := c.store.PutCode(hash, source); err != nil {
		return "", err
	}
	return hash, nil
}

// Get fetches source by hash.
func (c *CodeStore) Get(hash string) (string, error) {
	return c.store.GetCode(hash)
}

// Retain increments a code entry's reference count, e.g. when an object's
// code_hash starts pointing at it.
func (c *CodeStore) Retain(hash string) error {
	return c.store.AdjustCodeRefCount(hash, 1)
}

// Release decrements a code entry's reference count, e.g. when an
// object's code_hash changes away from it or the object is deleted.
func (c *CodeStore) Release(hash string) error {
	return c.store.AdjustCodeRefCount(hash, -1)
}

// Start begins the background GC sweep loop, grounded on the same
// ticker-and-stop-channel shape used throughout mudforge's background
// workers.
func (c *CodeStore) Start() {
	go c.run()
}

// Stop halts the sweep loop.
func (c *CodeStore) Stop() {
	close(c.stopCh)
}

func (c *CodeStore) run() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	c.logger.Info().Msg("code store GC sweep started")

	for {
		select {
		case <-ticker.C:
			n, err := c.store.SweepCode(c.grace)
			if err != nil {
				c.logger.Error().Err(err).Msg("code store sweep failed")
				continue
			}
			if n > 0 {
				metrics.CodeEntriesGCed.Add(float64(n))
				c.logger.Info().Int("swept", n).Msg("code store sweep removed entries")
			}
		case <-c.stopCh:
			c.logger.Info().Msg("code store GC sweep stopped")
			return
		}
	}
}
