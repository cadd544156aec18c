package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, last_processed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastProcessed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, last_processed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastProcessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, last_processed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastProcessed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Result operations ---

func (s *Store) InsertResult(r *Result) (int64, error) {
	id, err := insertResultTx(s.db, r)
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// execer is the subset of *sql.DB and *sql.Tx the insert helpers need.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// insertResultTx replaces any result cached under the same key.
func insertResultTx(db execer, r *Result) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO results (key, file_id, output, removed_bindings, removed_exports, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   file_id = excluded.file_id,
		   output = excluded.output,
		   removed_bindings = excluded.removed_bindings,
		   removed_exports = excluded.removed_exports,
		   created_at = excluded.created_at`,
		r.Key, r.FileID, r.Output, marshalNames(r.RemovedBindings), marshalNames(r.RemovedExports), r.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *Store) scanResult(scanner interface{ Scan(...any) error }) (*Result, error) {
	r := &Result{}
	var bindings, exports sql.NullString
	var fileID sql.NullInt64
	if err := scanner.Scan(&r.ID, &r.Key, &fileID, &r.Output, &bindings, &exports, &r.CreatedAt); err != nil {
		return nil, err
	}
	if fileID.Valid {
		r.FileID = &fileID.Int64
	}
	r.RemovedBindings = unmarshalNames(bindings.String)
	r.RemovedExports = unmarshalNames(exports.String)
	return r, nil
}

const resultColumns = "id, key, file_id, output, removed_bindings, removed_exports, created_at"

// ResultByKey returns the cached result for key, or nil when there is none.
func (s *Store) ResultByKey(key string) (*Result, error) {
	row := s.db.QueryRow("SELECT "+resultColumns+" FROM results WHERE key = ?", key)
	r, err := s.scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("result by key: %w", err)
	}
	return r, nil
}

// ResultsByFile returns every cached result produced from the file.
func (s *Store) ResultsByFile(fileID int64) ([]*Result, error) {
	rows, err := s.db.Query("SELECT "+resultColumns+" FROM results WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("results by file: %w", err)
	}
	defer rows.Close()
	var out []*Result
	for rows.Next() {
		r, err := s.scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountResults returns the number of cached results.
func (s *Store) CountResults() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// PurgeResults deletes every cached result.
func (s *Store) PurgeResults() error {
	if _, err := s.db.Exec("DELETE FROM results"); err != nil {
		return fmt.Errorf("purge results: %w", err)
	}
	return nil
}
