package store

import "sync"

// BatchedStore buffers result inserts in memory using fake (negative) IDs.
// It implements DataStore so workers can write to it without knowing
// whether they're hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Lookups fall through to the underlying Store, which is safe for
// concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Results []Result

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for reads.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertResult(r *Result) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	r.ID = fakeID
	b.Results = append(b.Results, *r)
	return fakeID, nil
}

// ResultByKey returns a buffered result first, then falls back to the
// database.
func (b *BatchedStore) ResultByKey(key string) (*Result, error) {
	b.mu.Lock()
	for i := len(b.Results) - 1; i >= 0; i-- {
		if b.Results[i].Key == key {
			r := b.Results[i]
			b.mu.Unlock()
			return &r, nil
		}
	}
	b.mu.Unlock()
	if b.store == nil {
		return nil, nil
	}
	return b.store.ResultByKey(key)
}

// Len returns the number of buffered results.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Results)
}
