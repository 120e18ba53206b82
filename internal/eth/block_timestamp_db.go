package eth

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BlockTimestampDb caches block number -> unix timestamp. Entries are
// write-once: SetTimestamp never replaces an existing value.
type BlockTimestampDb interface {
	GetTimestamp(blockNumber uint64) (uint64, bool)
	SetTimestamp(blockNumber uint64, timestamp uint64) error
}

type MemoryBlockTimestampDb struct {
	mu    sync.RWMutex
	store map[uint64]uint64
}

func NewMemoryBlockTimestampDb() *MemoryBlockTimestampDb {
	return &MemoryBlockTimestampDb{store: make(map[uint64]uint64)}
}

func (m *MemoryBlockTimestampDb) GetTimestamp(blockNumber uint64) (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.store[blockNumber]
	return ts, ok
}

func (m *MemoryBlockTimestampDb) SetTimestamp(blockNumber uint64, timestamp uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[blockNumber]; !ok {
		m.store[blockNumber] = timestamp
	}
	return nil
}

func (m *MemoryBlockTimestampDb) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func NewBadgerBlockTimestampDb(db *badger.DB) *BadgerBlockTimestampDb {
	return &BadgerBlockTimestampDb{db: db}
}

type BadgerBlockTimestampDb struct {
	db *badger.DB
}

const blockTimestampPrefix = "flipscan:blockTimestamp:"

func (b *BadgerBlockTimestampDb) GetTimestamp(blockNumber uint64) (uint64, bool) {
	var timestamp uint64
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(blockNumber))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.New("corrupt block timestamp value")
			}
			timestamp = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false
	}
	if err != nil {
		zap.L().Warn("Failed reading block timestamp", zap.Uint64("block", blockNumber), zap.Error(err))
		return 0, false
	}
	return timestamp, true
}

func (b *BadgerBlockTimestampDb) SetTimestamp(blockNumber uint64, timestamp uint64) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		key := encodeKey(blockNumber)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		var val [8]byte
		binary.BigEndian.PutUint64(val[:], timestamp)
		return txn.Set(key, val[:])
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent writer stored the same block first
		return nil
	}
	return err
}

func encodeKey(blockNum uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], blockNum)
	return append([]byte(blockTimestampPrefix), buf[:]...)
}

func decodeKey(key []byte) (uint64, bool) {
	if len(key) != len(blockTimestampPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(blockTimestampPrefix):]), true
}

// ForEach calls fn for every cached block in ascending block order and
// stops at the first error fn returns.
func (b *BadgerBlockTimestampDb) ForEach(fn func(blockNumber, timestamp uint64) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(blockTimestampPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			blockNumber, ok := decodeKey(item.Key())
			if !ok {
				continue
			}
			var timestamp uint64
			err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return errors.New("corrupt block timestamp value")
				}
				timestamp = binary.BigEndian.Uint64(val)
				return nil
			})
			if err != nil {
				return err
			}
			if err := fn(blockNumber, timestamp); err != nil {
				return err
			}
		}
		return nil
	})
}
