package cursor

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"gocloud.dev/blob/memblob"

	"github.com/kbukum/ingestkit/errors"
)

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestAdvance_FirstRunHasNoSince(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var got *time.Time
	err := Advance(context.Background(), store, fixedNow(start), func(_ context.Context, since *time.Time) error {
		got = since
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil since on first run, got %v", got)
	}
	saved, ok, _ := store.GetLastExecutionTime(context.Background())
	if !ok || !saved.Equal(start) {
		t.Errorf("expected cursor %v, got %v (set=%v)", start, saved, ok)
	}
}

func TestAdvance_PassesPreviousTime(t *testing.T) {
	store := NewMemoryStore()
	prev := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.SaveLastExecutionTime(context.Background(), prev)

	var got time.Time
	err := Advance(context.Background(), store, fixedNow(prev.Add(time.Hour)), func(_ context.Context, since *time.Time) error {
		got = *since
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(prev) {
		t.Errorf("expected since %v, got %v", prev, got)
	}
}

func TestAdvance_FailedRunKeepsCursor(t *testing.T) {
	store := NewMemoryStore()
	prev := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.SaveLastExecutionTime(context.Background(), prev)
	boom := stderrors.New("source down")

	err := Advance(context.Background(), store, fixedNow(prev.Add(time.Hour)), func(context.Context, *time.Time) error {
		return boom
	})
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
	saved, _, _ := store.GetLastExecutionTime(context.Background())
	if !saved.Equal(prev) {
		t.Errorf("cursor advanced on failure: %v", saved)
	}
}

type brokenStore struct{ getErr, saveErr error }

func (b brokenStore) GetLastExecutionTime(context.Context) (time.Time, bool, error) {
	return time.Time{}, false, b.getErr
}
func (b brokenStore) SaveLastExecutionTime(context.Context, time.Time) error { return b.saveErr }

func TestAdvance_StoreErrors(t *testing.T) {
	down := stderrors.New("disk full")
	tests := []struct {
		name   string
		store  brokenStore
		wantOp string
		ran    bool
	}{
		{"get fails before run", brokenStore{getErr: down}, "get", false},
		{"save fails after run", brokenStore{saveErr: down}, "save", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			err := Advance(context.Background(), tt.store, nil, func(context.Context, *time.Time) error {
				ran = true
				return nil
			})
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeStore || appErr.Details["operation"] != tt.wantOp {
				t.Fatalf("expected STORE_ERROR on %s, got %v", tt.wantOp, err)
			}
			if ran != tt.ran {
				t.Errorf("expected ran=%v", tt.ran)
			}
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SaveLastExecutionTime(context.Background(), time.Now())
	_ = store.Clear(context.Background())
	if _, ok, _ := store.GetLastExecutionTime(context.Background()); ok {
		t.Error("expected cleared cursor")
	}
}

func TestBlobStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := NewBlobStore(bucket, "cursors/news")

	if _, ok, err := store.GetLastExecutionTime(ctx); err != nil || ok {
		t.Fatalf("expected empty cursor, got ok=%v err=%v", ok, err)
	}

	at := time.Date(2026, 3, 4, 5, 6, 7, 891, time.FixedZone("X", 3600))
	if err := store.SaveLastExecutionTime(ctx, at); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.GetLastExecutionTime(ctx)
	if err != nil || !ok {
		t.Fatalf("expected cursor, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("expected %v, got %v", at, got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("clearing twice should succeed, got %v", err)
	}
	if _, ok, _ := store.GetLastExecutionTime(ctx); ok {
		t.Error("expected cursor cleared")
	}
}

func TestBlobStore_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	_ = bucket.WriteAll(ctx, "c", []byte("yesterday"), nil)

	_, _, err := NewBlobStore(bucket, "c").GetLastExecutionTime(ctx)
	if !errors.IsCode(err, errors.ErrCodeStore) {
		t.Errorf("expected STORE_ERROR, got %v", err)
	}
}
