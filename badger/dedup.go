package badger

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/errors"
)

// DedupStore is a persistent dedup.Store. Keys survive restarts, so items
// seen in one run are skipped in the next.
type DedupStore struct {
	db     *DB
	prefix []byte
	ttl    time.Duration
	now    func() time.Time
}

var (
	_ dedup.Store      = (*DedupStore)(nil)
	_ dedup.Resettable = (*DedupStore)(nil)
)

// NewDedupStore creates a seen-set named namespace in db.
func NewDedupStore(db *DB, namespace string) *DedupStore {
	return &DedupStore{
		db:     db,
		prefix: namespacePrefix("dedup", namespace),
		ttl:    db.cfg.SeenTTL,
		now:    time.Now,
	}
}

// namespacePrefix length-prefixes namespace so that no namespace's prefix
// is a prefix of another's, e.g. "a/b" and "a/b/c".
func namespacePrefix(kind, namespace string) []byte {
	return []byte(kind + "/" + strconv.Itoa(len(namespace)) + ":" + namespace + "/")
}

func (s *DedupStore) key(k string) []byte {
	return append(append([]byte(nil), s.prefix...), k...)
}

// Exists reports whether key was saved and has not expired.
func (s *DedupStore) Exists(_ context.Context, key string) (bool, error) {
	err := s.db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(key))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.StoreError(storeName, "exists", err)
	}
	return true, nil
}

// Save marks key as seen. The value is the time it was first saved.
func (s *DedupStore) Save(_ context.Context, key string) error {
	err := s.db.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(s.key(key), []byte(strconv.FormatInt(s.now().UnixNano(), 10)))
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return errors.StoreError(storeName, "save", err)
	}
	return nil
}

// Reset forgets every key in this namespace.
func (s *DedupStore) Reset(context.Context) error {
	if err := s.db.db.DropPrefix(s.prefix); err != nil {
		return errors.StoreError(storeName, "reset", err)
	}
	return nil
}

// Len returns the number of keys in this namespace.
func (s *DedupStore) Len() (int, error) {
	n, err := s.db.countPrefix(s.prefix)
	if err != nil {
		return 0, errors.StoreError(storeName, "count", err)
	}
	return n, nil
}
