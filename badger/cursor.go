package badger

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/errors"
)

// CursorStore is a persistent cursor.Store.
type CursorStore struct {
	db  *DB
	key []byte
}

var (
	_ cursor.Store   = (*CursorStore)(nil)
	_ cursor.Clearer = (*CursorStore)(nil)
)

// NewCursorStore creates the cursor named name in db.
func NewCursorStore(db *DB, name string) *CursorStore {
	return &CursorStore{db: db, key: []byte("cursor/" + name)}
}

func (s *CursorStore) GetLastExecutionTime(context.Context) (time.Time, bool, error) {
	var at time.Time
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return at.UnmarshalText(val)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.StoreError(storeName, "get cursor", err)
	}
	return at, true, nil
}

func (s *CursorStore) SaveLastExecutionTime(_ context.Context, t time.Time) error {
	val, err := t.MarshalText()
	if err != nil {
		return errors.StoreError(storeName, "save cursor", err)
	}
	err = s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, val)
	})
	if err != nil {
		return errors.StoreError(storeName, "save cursor", err)
	}
	return nil
}

// Clear removes the saved time.
func (s *CursorStore) Clear(context.Context) error {
	err := s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	})
	if err != nil {
		return errors.StoreError(storeName, "clear cursor", err)
	}
	return nil
}
