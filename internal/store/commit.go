package store

import "fmt"

// CommitBatch inserts all buffered results from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are replaced by the
// real IDs SQLite assigns.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	if len(batch.Results) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Results {
		r := &batch.Results[i]
		realID, err := insertResultTx(tx, r)
		if err != nil {
			return fmt.Errorf("commit batch: result %s: %w", r.Key, err)
		}
		r.ID = realID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	batch.Results = batch.Results[:0]
	return nil
}
