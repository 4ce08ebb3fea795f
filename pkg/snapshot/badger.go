package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "snap/"

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the directory for database files. Ignored when InMemory is true.
	Dir string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives badger's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// BadgerStore persists snapshots in an embedded BadgerDB, so they survive
// a process restart.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens a BadgerStore.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("snapshot: badger directory is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("snapshot: create badger directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + id)
}

// Save stores snap for id.
func (b *BadgerStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStoreClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(id), data)
	})
}

// Load returns the snapshot for id, or nil.
func (b *BadgerStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", id, err)
	}
	return Unmarshal(data)
}

// Delete removes the snapshot for id.
func (b *BadgerStore) Delete(ctx context.Context, id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStoreClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(id))
	})
}

// Close closes the database.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
