// Package gencache stores generated lesson texts keyed by the request that produced them.
package gencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/db"
	"github.com/kailas-cloud/bnccrag/internal/domain"
)

const keyPrefix = "bnccrag:gen:"

// Key identifies a generation. Variant separates the live and strict prompt shapes.
type Key struct {
	Variant string
	Model   string
	Request domain.GenerationRequest
}

// String hashes the JSON-encoded tuple so field boundaries survive any separator in the values.
func (k Key) String() string {
	r := k.Request
	raw, _ := json.Marshal([]any{
		k.Variant, k.Model, r.Component, r.Year, r.Stage, r.IncludeAssessment, r.IncludeSlides, r.Prompt,
	})
	h := sha256.Sum256(raw)
	return keyPrefix + hex.EncodeToString(h[:])
}

// Cache is a best-effort text cache: store failures are logged and reported as misses.
type Cache struct {
	store      db.KVStore
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache. cacheTotal has a single "result" label and may be nil.
func New(store db.KVStore, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: store, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached text for k.
func (c *Cache) Get(ctx context.Context, k Key) (string, bool) {
	key := k.String()
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("generation cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return "", false
	}
	if len(data) == 0 {
		c.inc("miss")
		return "", false
	}
	c.inc("hit")
	return string(data), true
}

// Put stores text under k with the configured TTL.
func (c *Cache) Put(ctx context.Context, k Key, text string) {
	key := k.String()
	if err := c.store.SetWithTTL(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn("generation cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
