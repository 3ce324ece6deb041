// Package cache puts an in-process expiring LRU in front of an AnalysisStore.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nutridive/nutridive/pkg/metrics"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/repositories"
)

// CachedStore is a read-through AnalysisStore. Only present records are
// cached, so a miss always reaches the underlying store. Each instance has its
// own cache; a delete made by another instance is visible here after ttl.
type CachedStore struct {
	inner   repositories.AnalysisStore
	lru     *expirable.LRU[string, *models.AnalysisRecord]
	metrics *metrics.Metrics
}

var _ repositories.AnalysisStore = (*CachedStore)(nil)

// New wraps inner with a cache of at most size records, each kept for ttl.
// A size of zero or less returns inner unchanged.
func New(inner repositories.AnalysisStore, size int, ttl time.Duration, m *metrics.Metrics) repositories.AnalysisStore {
	if size <= 0 {
		return inner
	}
	return &CachedStore{
		inner:   inner,
		lru:     expirable.NewLRU[string, *models.AnalysisRecord](size, nil, ttl),
		metrics: m,
	}
}

func (c *CachedStore) Get(ctx context.Context, barcode string) (*models.AnalysisRecord, error) {
	if rec, ok := c.lru.Get(barcode); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return rec, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	rec, err := c.inner.Get(ctx, barcode)
	if err != nil || rec == nil {
		return rec, err
	}
	c.lru.Add(barcode, rec)
	return rec, nil
}

func (c *CachedStore) Put(ctx context.Context, record *models.AnalysisRecord) (*models.AnalysisRecord, bool, error) {
	stored, created, err := c.inner.Put(ctx, record)
	if err != nil {
		return nil, false, err
	}
	c.lru.Add(stored.Barcode, stored)
	return stored, created, nil
}

func (c *CachedStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := c.inner.DeleteByID(ctx, id); err != nil {
		return err
	}
	for _, barcode := range c.lru.Keys() {
		if rec, ok := c.lru.Peek(barcode); ok && rec.ID == id {
			c.lru.Remove(barcode)
		}
	}
	return nil
}

func (c *CachedStore) RecordScan(ctx context.Context, userID, barcode string) error {
	return c.inner.RecordScan(ctx, userID, barcode)
}

// List is not cached; history must reflect deletes immediately.
func (c *CachedStore) List(ctx context.Context, limit int, userID string) ([]models.AnalysisSummary, error) {
	return c.inner.List(ctx, limit, userID)
}
