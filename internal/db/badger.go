package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// badgerLogger routes badger's printf-style logging onto zap.
type badgerLogger struct {
	*zap.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.Sugar().Errorf(f, v...)
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.Sugar().Warnf(f, v...)
}

func (l badgerLogger) Infof(f string, v ...interface{}) {
	l.Sugar().Debugf(f, v...)
}

func (l badgerLogger) Debugf(f string, v ...interface{}) {
	// badger debug output is compaction noise
}

// OpenBadger opens (creating if needed) an on-disk badger store at path.
func OpenBadger(path string) (*badger.DB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for BadgerDB: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Clean(path)).
		WithSyncWrites(false).
		WithLogger(badgerLogger{zap.L().Named("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	zap.L().Info("Opened BadgerDB", zap.String("path", path))
	return db, nil
}

// OpenInMemoryBadger opens a badger store that lives only as long as the process.
func OpenInMemoryBadger() (*badger.DB, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{zap.L().Named("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory BadgerDB: %w", err)
	}
	return db, nil
}
