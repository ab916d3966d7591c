package vault

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Store is the key-value collaborator behind the vault and the draft
// store. Implementations must make Put durable before returning. Only
// opaque (already encrypted) blobs ever cross this boundary.
type Store interface {
	// Put stores value under key, overwriting any previous value.
	Put(key, value []byte) error
	// Get returns the value stored under key. The second return value
	// reports whether the key was present.
	Get(key []byte) ([]byte, bool, error)
	// Close releases the underlying resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and ephemeral wallets.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

var errStoreClosed = errors.New("vault: store closed")

// Put implements Store.
func (m *MemoryStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errStoreClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, errStoreClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// LevelStore is a persistent Store backed by goleveldb.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (creating if necessary) a leveldb database at
// path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

// Put implements Store. The write is synced to disk before returning.
func (s *LevelStore) Put(key, value []byte) error {
	return s.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

// Get implements Store.
func (s *LevelStore) Get(key []byte) ([]byte, bool, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Close implements Store.
func (s *LevelStore) Close() error {
	return s.db.Close()
}
