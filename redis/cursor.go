package redis

import (
	"context"
	"time"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/errors"
)

// CursorStore is a cursor.Store kept as an RFC 3339 string.
type CursorStore struct {
	client *Client
	key    string
}

var (
	_ cursor.Store   = (*CursorStore)(nil)
	_ cursor.Clearer = (*CursorStore)(nil)
)

// NewCursorStore creates the cursor named name.
func NewCursorStore(client *Client, name string) *CursorStore {
	return &CursorStore{client: client, key: client.key("cursor", name)}
}

func (s *CursorStore) GetLastExecutionTime(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := s.client.get(ctx, s.key)
	if err != nil {
		return time.Time{}, false, errors.StoreError(storeName, "get cursor", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, errors.StoreError(storeName, "decode cursor", err)
	}
	return t, true, nil
}

func (s *CursorStore) SaveLastExecutionTime(ctx context.Context, t time.Time) error {
	if err := s.client.rdb.Set(ctx, s.key, t.Format(time.RFC3339Nano), 0).Err(); err != nil {
		return errors.StoreError(storeName, "save cursor", err)
	}
	return nil
}

// Clear removes the saved time.
func (s *CursorStore) Clear(ctx context.Context) error {
	if err := s.client.rdb.Del(ctx, s.key).Err(); err != nil {
		return errors.StoreError(storeName, "clear cursor", err)
	}
	return nil
}
