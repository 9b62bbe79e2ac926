// Package cache provides an in-process ristretto cache for per-topic
// assessment criteria, so the assessment activity does not hit the
// database on every scoring attempt.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/kbforge/kbforge/internal/config"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/domain/topic"
)

// TopicSource loads a topic with its criteria from the primary store.
type TopicSource interface {
	GetTopic(ctx context.Context, id string) (*topic.Topic, error)
}

// CriteriaProvider serves per-topic criteria with a read-through cache.
type CriteriaProvider struct {
	source TopicSource
	cache  *ristretto.Cache[string, assessment.Criteria]
	ttl    time.Duration
}

// NewCriteriaProvider creates a provider over the given source.
func NewCriteriaProvider(source TopicSource, cfg config.Cache) (*CriteriaProvider, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, assessment.Criteria]{
		NumCounters: cfg.MaxEntries * 10, // ~10x expected items
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("criteria cache: %w", err)
	}
	return &CriteriaProvider{source: source, cache: c, ttl: cfg.CriteriaTTL}, nil
}

// CriteriaFor returns the criteria for a topic, loading through the cache.
func (p *CriteriaProvider) CriteriaFor(ctx context.Context, topicID string) (assessment.Criteria, error) {
	if crit, ok := p.cache.Get(topicID); ok {
		return crit, nil
	}

	t, err := p.source.GetTopic(ctx, topicID)
	if err != nil {
		return assessment.Criteria{}, fmt.Errorf("load topic %s: %w", topicID, err)
	}

	p.cache.SetWithTTL(topicID, t.Criteria, 1, p.ttl)
	p.cache.Wait()
	return t.Criteria, nil
}

// Invalidate drops a topic's cached criteria, for topic updates.
func (p *CriteriaProvider) Invalidate(topicID string) {
	p.cache.Del(topicID)
}

// Close releases cache resources.
func (p *CriteriaProvider) Close() {
	p.cache.Close()
}
