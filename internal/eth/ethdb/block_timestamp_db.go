package ethdb

import (
	"database/sql"
	"errors"

	"go.uber.org/zap"
)

func NewBlockTimestampDb(db *sql.DB) *SqliteBlockTimestampDb {
	return &SqliteBlockTimestampDb{db: db}
}

// SqliteBlockTimestampDb keeps resolved block timestamps in the
// block_timestamp table so later runs skip the RPC lookups.
type SqliteBlockTimestampDb struct {
	db *sql.DB
}

func (b *SqliteBlockTimestampDb) GetTimestamp(blockNumber uint64) (uint64, bool) {
	var ts int64
	err := b.db.QueryRow("select timestamp from block_timestamp where block_number = ?", int64(blockNumber)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		zap.L().Warn("Failed reading block timestamp", zap.Uint64("block", blockNumber), zap.Error(err))
		return 0, false
	}
	return uint64(ts), true
}

func (b *SqliteBlockTimestampDb) SetTimestamp(blockNumber uint64, timestamp uint64) error {
	_, err := b.db.Exec("insert into block_timestamp (block_number, timestamp) values (?, ?) on conflict(block_number) do nothing", int64(blockNumber), int64(timestamp))
	return err
}
