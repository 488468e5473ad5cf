package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
)

// MemoryStore keeps transactions in process memory. It is the default
// backend for local runs and the store used by handler tests; it
// implements the same contract as SQLiteStore.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	txs    map[int64]core.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[int64]core.Transaction)}
}

func (s *MemoryStore) Create(ctx context.Context, t *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	t.ID = s.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	s.txs[t.ID] = *t
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID string, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, int64, error) {
	s.mu.RLock()
	matched := s.match(f.OwnerID, f.Kind, f.Category, f.Month)
	s.mu.RUnlock()

	// Newest first, ties broken by insertion order (highest id first).
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.After(matched[j].OccurredAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	lo := f.Skip()
	if lo > len(matched) {
		lo = len(matched)
	}
	hi := lo + f.Limit
	if hi > len(matched) {
		hi = len(matched)
	}
	return matched[lo:hi], total, nil
}

func (s *MemoryStore) Update(ctx context.Context, ownerID string, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	t = u.Apply(t)
	t.UpdatedAt = time.Now().UTC()
	s.txs[id] = t
	return t, nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.txs, t.ID)
	return nil
}

func (s *MemoryStore) SummarizeByKind(ctx context.Context, ownerID string, month *core.YearMonth) (core.Summary, error) {
	s.mu.RLock()
	matched := s.match(ownerID, "", "", month)
	s.mu.RUnlock()
	return core.Summarize(matched), nil
}

// match returns copies of every transaction passing the filter.
// Callers hold at least a read lock.
func (s *MemoryStore) match(ownerID string, kind core.Kind, category string, month *core.YearMonth) []core.Transaction {
	var start, end time.Time
	if month != nil {
		start, end = month.Range()
	}
	var out []core.Transaction
	for _, t := range s.txs {
		if t.OwnerID != ownerID {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(category)) {
			continue
		}
		if month != nil && (t.OccurredAt.Before(start) || !t.OccurredAt.Before(end)) {
			continue
		}
		out = append(out, t)
	}
	return out
}
