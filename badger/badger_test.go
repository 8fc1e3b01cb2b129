package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/pipeline"
)

func openMemory(t *testing.T, cfg Config) *DB {
	t.Helper()
	cfg.InMemory = true
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_InMemory(t *testing.T) {
	db := openMemory(t, Config{})
	assert.False(t, db.IsClosed())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpen_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Open(Config{Path: file})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestClose_PingFails(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.True(t, db.IsClosed())
	assert.True(t, errors.IsCode(db.Ping(context.Background()), errors.ErrCodeStore))
}

func TestDedupStore_ExistsAndSave(t *testing.T) {
	ctx := context.Background()
	store := NewDedupStore(openMemory(t, Config{}), "pages")

	seen, err := store.Exists(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Save(ctx, "https://example.com/a"))
	seen, err = store.Exists(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, seen)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDedupStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t, Config{})
	pages := NewDedupStore(db, "pages")
	links := NewDedupStore(db, "links")

	require.NoError(t, pages.Save(ctx, "k"))
	seen, err := links.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, links.Save(ctx, "other"))
	require.NoError(t, pages.Reset(ctx))

	n, err := pages.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = links.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDedupStore_NestedNamespaceNames(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t, Config{})
	outer := NewDedupStore(db, "x/links")
	inner := NewDedupStore(db, "x/links/links")

	require.NoError(t, inner.Save(ctx, "k"))
	seen, err := outer.Exists(ctx, "links/k")
	require.NoError(t, err)
	assert.False(t, seen, "keys must not leak across namespaces")

	require.NoError(t, outer.Save(ctx, "k"))
	require.NoError(t, outer.Reset(ctx))

	n, err := inner.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "resetting one namespace keeps the other")
	n, err = outer.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDedupStore_WithTTL(t *testing.T) {
	ctx := context.Background()
	store := NewDedupStore(openMemory(t, Config{SeenTTL: time.Hour}), "pages")

	require.NoError(t, store.Save(ctx, "k"))
	seen, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, NewDedupStore(db, "pages").Save(ctx, "k"))
	require.NoError(t, db.Close())

	db, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer db.Close()
	seen, err := NewDedupStore(db, "pages").Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupStore_BacksDedupStage(t *testing.T) {
	ctx := context.Background()
	store := NewDedupStore(openMemory(t, Config{}), "words")
	stage := dedup.NewStage(store, func(s string) string { return s }, dedup.WithLogger(logger.NewNop()))

	var got []string
	for _, item := range []string{"a", "b", "a", "a"} {
		it, err := stage.Process(ctx, item)
		require.NoError(t, err)
		out, err := pipeline.Pull(ctx, it)
		require.NoError(t, err)
		got = append(got, out...)
	}
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, int64(2), stage.DuplicateCount())

	require.NoError(t, stage.Reset(ctx))
	n, err := store.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDedupStore_ClosedDBIsStoreError(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	store := NewDedupStore(db, "pages")
	require.NoError(t, db.Close())

	_, err = store.Exists(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStore))
}

func TestCursorStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCursorStore(openMemory(t, Config{}), "articles")

	_, ok, err := store.GetLastExecutionTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := time.Date(2026, 5, 1, 8, 30, 0, 123456789, time.UTC)
	require.NoError(t, store.SaveLastExecutionTime(ctx, want))

	got, ok, err := store.GetLastExecutionTime(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, want.Equal(got), "got %v", got)

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.GetLastExecutionTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCursorStore_AdvanceOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewCursorStore(openMemory(t, Config{}), "articles")
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	err := cursor.Advance(ctx, store, func() time.Time { return t0 }, func(context.Context, *time.Time) error {
		return errors.SourceError(nil)
	})
	require.Error(t, err)
	_, ok, err := store.GetLastExecutionTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "failed run must not advance the cursor")

	var since *time.Time
	require.NoError(t, cursor.Advance(ctx, store, func() time.Time { return t0 }, func(context.Context, *time.Time) error {
		return nil
	}))
	require.NoError(t, cursor.Advance(ctx, store, func() time.Time { return t0.Add(time.Hour) }, func(_ context.Context, s *time.Time) error {
		since = s
		return nil
	}))
	require.NotNil(t, since)
	assert.True(t, t0.Equal(*since))
}
