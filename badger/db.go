package badger

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
)

const storeName = "badger"

// DB wraps a BadgerDB instance shared by the stores of this package.
type DB struct {
	db  *badger.DB
	cfg Config
	log *logger.Logger
}

// badgerLogger routes badger's own logging into the component logger.
type badgerLogger struct {
	log *logger.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any)   { l.log.Error(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Warningf(msg string, items ...any) { l.log.Warn(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Infof(msg string, items ...any)    { l.log.Debug(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Debugf(msg string, items ...any)   { l.log.Debug(fmt.Sprintf(msg, items...)) }

// Open opens the database described by cfg, creating the directory if needed.
func Open(cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get("badger")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(cfg.Path)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
				return nil, errors.StoreError(storeName, "open", err)
			}
		case err != nil:
			return nil, errors.StoreError(storeName, "open", err)
		case !info.IsDir():
			return nil, errors.InvalidInput("path", fmt.Sprintf("%s is not a directory", cfg.Path))
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithCompression(options.None)
	opts.Logger = &badgerLogger{log: log}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.StoreError(storeName, "open", err)
	}
	log.Info("badger opened", logger.Fields("path", cfg.Path, "in_memory", cfg.InMemory))
	return &DB{db: db, cfg: cfg, log: log}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// IsClosed reports whether Close was called.
func (d *DB) IsClosed() bool {
	return d.db.IsClosed()
}

// Ping fails when the database is closed.
func (d *DB) Ping(context.Context) error {
	if d.db.IsClosed() {
		return errors.StoreError(storeName, "ping", badger.ErrDBClosed)
	}
	return nil
}

// countPrefix returns the number of live keys under prefix.
func (d *DB) countPrefix(prefix []byte) (int, error) {
	n := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
