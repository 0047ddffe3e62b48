package dataset

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"datalens/internal/errors"
)

// Store keeps parsed datasets in memory, bounded by a dataset cap and a TTL.
// When the cap is reached the oldest dataset is evicted to make room, which
// mirrors how the original tool only kept the session's working set alive.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset

	maxDatasets int
	ttl         time.Duration
	logger      *slog.Logger

	// onEvict, when set, is invoked outside the lock for each evicted ID.
	onEvict func(id string)
}

// NewStore creates a dataset store. A ttl of zero disables expiry.
func NewStore(maxDatasets int, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		datasets:    make(map[string]*Dataset),
		maxDatasets: maxDatasets,
		ttl:         ttl,
		logger:      logger.With(slog.String("component", "dataset_store")),
	}
}

// SetEvictionCallback registers a callback invoked with the ID of every
// evicted or expired dataset.
func (s *Store) SetEvictionCallback(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Put stores a dataset, evicting the oldest entry if the store is full.
func (s *Store) Put(ds *Dataset) {
	var evicted []string

	s.mu.Lock()
	for len(s.datasets) >= s.maxDatasets {
		oldest := s.oldestLocked()
		if oldest == "" {
			break
		}
		delete(s.datasets, oldest)
		evicted = append(evicted, oldest)
	}
	s.datasets[ds.ID] = ds
	s.mu.Unlock()

	for _, id := range evicted {
		s.logger.Info("evicted dataset to make room",
			slog.String("dataset_id", id),
			slog.String("replaced_by", ds.ID))
		s.notifyEvict(id)
	}
}

// Get retrieves a dataset by ID.
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.NewNotFoundError("dataset")
	}
	return ds, nil
}

// Delete removes a dataset by ID. Returns false if it was not present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.datasets[id]
	if ok {
		delete(s.datasets, id)
	}
	s.mu.Unlock()
	return ok
}

// List returns all datasets ordered by upload time, newest first.
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	out := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// Prune removes datasets older than the TTL and returns how many went.
func (s *Store) Prune() int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-s.ttl)
	var expired []string

	s.mu.Lock()
	for id, ds := range s.datasets {
		if ds.UploadedAt.Before(cutoff) {
			delete(s.datasets, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.logger.Info("expired dataset", slog.String("dataset_id", id))
		s.notifyEvict(id)
	}
	return len(expired)
}

// StartJanitor runs Prune on the given interval until ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Prune(); n > 0 {
					s.logger.Info("janitor pruned datasets", slog.Int("count", n))
				}
			}
		}
	}()
}

// oldestLocked returns the ID of the oldest dataset. Caller holds the lock.
func (s *Store) oldestLocked() string {
	var oldestID string
	var oldestAt time.Time
	for id, ds := range s.datasets {
		if oldestID == "" || ds.UploadedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = ds.UploadedAt
		}
	}
	return oldestID
}

// notifyEvict invokes the eviction callback if registered.
func (s *Store) notifyEvict(id string) {
	s.mu.RLock()
	fn := s.onEvict
	s.mu.RUnlock()

	if fn != nil {
		fn(id)
	}
}
