package journal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryJournal keeps per-session history in process memory, newest first.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Transaction
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: map[uuid.UUID][]Transaction{}}
}

func (j *MemoryJournal) Record(_ context.Context, tx Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[tx.SessionID] = append(j.entries[tx.SessionID], tx)
	return nil
}

func (j *MemoryJournal) ListBySession(_ context.Context, sessionID uuid.UUID, limit int) ([]Transaction, error) {
	limit = normalizeLimit(limit)

	j.mu.RLock()
	defer j.mu.RUnlock()

	all := j.entries[sessionID]
	out := make([]Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
