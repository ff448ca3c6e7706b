// Package cache holds the per-query keyed caches for detail text and channel
// lists. Both sides are bounded LRU maps: a miss simply re-fetches, so
// eviction order is not correctness-critical.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"planscope/internal/domain"
)

const DefaultMaxEntries = 1000

// Store is two independent keyed caches sharing one size bound, keyed by
// plan code. Presence of a key means a prior successful fetch. Cleared once
// at the start of each new query.
type Store struct {
	detail   *lru.Cache[string, string]
	channels *lru.Cache[string, []domain.ChannelRecord]
}

func New(maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	d, err := lru.New[string, string](maxEntries)
	if err != nil {
		return nil, err
	}
	c, err := lru.New[string, []domain.ChannelRecord](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Store{detail: d, channels: c}, nil
}

func (s *Store) Detail(planCode string) (string, bool) {
	return s.detail.Get(planCode)
}

func (s *Store) SetDetail(planCode, text string) {
	s.detail.Add(planCode, text)
}

func (s *Store) HasDetail(planCode string) bool {
	return s.detail.Contains(planCode)
}

func (s *Store) Channels(planCode string) ([]domain.ChannelRecord, bool) {
	return s.channels.Get(planCode)
}

func (s *Store) SetChannels(planCode string, records []domain.ChannelRecord) {
	s.channels.Add(planCode, records)
}

func (s *Store) HasChannels(planCode string) bool {
	return s.channels.Contains(planCode)
}

// Clear drops both sides. Called exactly once per new query, not per row.
func (s *Store) Clear() {
	s.detail.Purge()
	s.channels.Purge()
}
