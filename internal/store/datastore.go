package store

// DataStore is the interface for transform-phase cache access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// processing) implement this interface.
type DataStore interface {
	InsertResult(r *Result) (int64, error)
	ResultByKey(key string) (*Result, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
