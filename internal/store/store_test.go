package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path, lang string) *File {
	t.Helper()
	f := &File{Path: path, Language: lang, Hash: "abc123", LastProcessed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "results", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// File operations
// =============================================================================

func TestFile_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := &File{Path: "/src/routes/index.tsx", Language: "tsx", Hash: "sha256abc", LastProcessed: time.Now()}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.FileByPath("/src/routes/index.tsx")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "tsx", got.Language)
	assert.Equal(t, "sha256abc", got.Hash)
}

func TestFile_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.FileByPath("/nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFile_DuplicatePathRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/a.js", "javascript")
	_, err := s.InsertFile(&File{Path: "/a.js", Language: "javascript"})
	assert.Error(t, err)
}

func TestFiles_SortedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/b.js", "javascript")
	insertTestFile(t, s, "/a.ts", "typescript")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.ts", files[0].Path)
	assert.Equal(t, "/b.js", files[1].Path)
}

func TestDeleteFileData_RemovesResultsAndFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.js", "javascript")

	_, err := s.InsertResult(&Result{Key: "k1", FileID: &f.ID, Output: []byte("x;\n")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFileData(f.ID))

	got, err := s.FileByPath("/a.js")
	require.NoError(t, err)
	assert.Nil(t, got)

	r, err := s.ResultByKey("k1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

// =============================================================================
// Result operations
// =============================================================================

func TestResult_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.js", "javascript")

	r := &Result{
		Key:             "key-a",
		FileID:          &f.ID,
		Output:          []byte("export const a = 1;\n"),
		RemovedBindings: []string{"b", "helper"},
		RemovedExports:  []string{"b"},
		CreatedAt:       time.Now(),
	}
	id, err := s.InsertResult(r)
	require.NoError(t, err)
	require.Positive(t, id)
	assert.Equal(t, id, r.ID)

	got, err := s.ResultByKey("key-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "export const a = 1;\n", string(got.Output))
	assert.Equal(t, []string{"b", "helper"}, got.RemovedBindings)
	assert.Equal(t, []string{"b"}, got.RemovedExports)
	require.NotNil(t, got.FileID)
	assert.Equal(t, f.ID, *got.FileID)
}

func TestResult_WithoutFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.InsertResult(&Result{Key: "stdin", Output: []byte("x;\n")})
	require.NoError(t, err)

	got, err := s.ResultByKey("stdin")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.FileID)
	assert.Nil(t, got.RemovedBindings)
}

func TestResult_SameKeyReplaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.InsertResult(&Result{Key: "k", Output: []byte("old")})
	require.NoError(t, err)
	_, err = s.InsertResult(&Result{Key: "k", Output: []byte("new")})
	require.NoError(t, err)

	got, err := s.ResultByKey("k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got.Output))

	n, err := s.CountResults()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResultsByFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/a.js", "javascript")
	other := insertTestFile(t, s, "/b.js", "javascript")

	_, err := s.InsertResult(&Result{Key: "1", FileID: &f.ID, Output: []byte("1")})
	require.NoError(t, err)
	_, err = s.InsertResult(&Result{Key: "2", FileID: &f.ID, Output: []byte("2")})
	require.NoError(t, err)
	_, err = s.InsertResult(&Result{Key: "3", FileID: &other.ID, Output: []byte("3")})
	require.NoError(t, err)

	got, err := s.ResultsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Key)
	assert.Equal(t, "2", got[1].Key)
}

func TestPurgeResults(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.InsertResult(&Result{Key: "a", Output: []byte("a")})
	require.NoError(t, err)

	require.NoError(t, s.PurgeResults())
	n, err := s.CountResults()
	require.NoError(t, err)
	assert.Zero(t, n)
}

// =============================================================================
// Metadata
// =============================================================================

func TestMetadata_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("tool_version")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("tool_version", "1"))
	require.NoError(t, s.SetMetadata("tool_version", "2"))

	v, err = s.GetMetadata("tool_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

// =============================================================================
// Keys
// =============================================================================

func TestComputeResultKey_OrderAndDuplicatesIgnored(t *testing.T) {
	t.Parallel()
	src := []byte("export const a = 1, b = 2;")

	k1 := ComputeResultKey("v1", "javascript", src, []string{"a", "b"})
	k2 := ComputeResultKey("v1", "javascript", src, []string{"b", "a", "b"})
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
}

func TestComputeResultKey_InputsMatter(t *testing.T) {
	t.Parallel()
	src := []byte("export const a = 1;")
	base := ComputeResultKey("v1", "javascript", src, []string{"a"})

	assert.NotEqual(t, base, ComputeResultKey("v2", "javascript", src, []string{"a"}))
	assert.NotEqual(t, base, ComputeResultKey("v1", "typescript", src, []string{"a"}))
	assert.NotEqual(t, base, ComputeResultKey("v1", "javascript", []byte("export const a = 2;"), []string{"a"}))
	assert.NotEqual(t, base, ComputeResultKey("v1", "javascript", src, []string{"a", "b"}))
	assert.NotEqual(t,
		ComputeResultKey("v1", "javascript", src, []string{"a,b"}),
		ComputeResultKey("v1", "javascript", src, []string{"a", "b"}),
	)
}

func TestComputeResultKey_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	removals := []string{"z", "a", "z"}
	ComputeResultKey("v", "javascript", nil, removals)
	assert.Equal(t, []string{"z", "a", "z"}, removals)
}

func TestNames_MarshalRoundTrip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[]", marshalNames(nil))
	assert.Nil(t, unmarshalNames("[]"))
	assert.Nil(t, unmarshalNames(""))
	assert.Equal(t, []string{"😀", "a"}, unmarshalNames(marshalNames([]string{"😀", "a"})))
}
