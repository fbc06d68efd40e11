package localdata

import (
	"sync"

	"github.com/learnspace/learnspace/core/session"
)

// MemStore is an in-memory session backend for tests and throwaway runs.
type MemStore struct {
	mu     sync.RWMutex
	record []byte
	set    bool
}

var _ session.Backend = (*MemStore)(nil) // interface compliance check

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (ms *MemStore) Put(data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	ms.record = cp
	ms.set = true
	return nil
}

func (ms *MemStore) Get() ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if !ms.set {
		return nil, session.ErrNoRecord
	}
	cp := make([]byte, len(ms.record))
	copy(cp, ms.record)
	return cp, nil
}

func (ms *MemStore) Delete() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.set {
		return session.ErrNoRecord
	}
	ms.record = nil
	ms.set = false
	return nil
}

func (ms *MemStore) Watch(func()) (stop func(), err error) {
	return func() {}, nil // single process; nothing to watch
}
