// Package cursor persists the time of the last successful run so the next
// run only reads what is new.
package cursor

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/ingestkit/errors"
)

// Store holds a single execution timestamp.
type Store interface {
	// GetLastExecutionTime returns false when no run has completed yet.
	GetLastExecutionTime(ctx context.Context) (time.Time, bool, error)
	SaveLastExecutionTime(ctx context.Context, t time.Time) error
}

// Clearer is implemented by stores that can forget the saved time.
type Clearer interface {
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu  sync.RWMutex
	at  time.Time
	set bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) GetLastExecutionTime(context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.at, s.set, nil
}

func (s *MemoryStore) SaveLastExecutionTime(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at, s.set = t, true
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at, s.set = time.Time{}, false
	return nil
}

// Advance runs one incremental execution. It reads the cursor once, records
// the start time from now, and calls run with the previous time (nil on the
// first run). The start time is saved only when run succeeds, so a failed run
// re-reads the same window next time.
func Advance(ctx context.Context, store Store, now func() time.Time, run func(ctx context.Context, since *time.Time) error) error {
	if now == nil {
		now = time.Now
	}
	last, ok, err := store.GetLastExecutionTime(ctx)
	if err != nil {
		return wrap("get", err)
	}
	var since *time.Time
	if ok {
		since = &last
	}

	started := now()
	if err := run(ctx, since); err != nil {
		return err
	}
	if err := store.SaveLastExecutionTime(ctx, started); err != nil {
		return wrap("save", err)
	}
	return nil
}

func wrap(op string, err error) error {
	if errors.IsCode(err, errors.ErrCodeStore) {
		return err
	}
	return errors.StoreError("cursor", op, err)
}
