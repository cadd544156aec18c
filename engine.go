package unexport

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jward/unexport/internal/liveness"
	"github.com/jward/unexport/internal/parser"
	"github.com/jward/unexport/internal/printer"
	"github.com/jward/unexport/internal/runtime"
	"github.com/jward/unexport/internal/store"
)

// versionKey is the metadata key holding the Version that wrote the cache.
const versionKey = "tool_version"

// Engine runs transforms over many files, optionally caching results in
// SQLite and choosing removals with Risor policy scripts.
type Engine struct {
	store     *store.Store // nil without WithCache
	runtime   *runtime.Runtime
	logger    zerolog.Logger
	cachePath string
	policyDir string
	policyFS  fs.FS

	useParallel     bool
	workers         int
	collapseImports bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls the worker pool. When true (default), ProcessFiles
// transforms files concurrently and commits cache entries from a single
// goroutine. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers caps the worker pool. Zero means one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithCache stores results in the SQLite database at dbPath. Inputs that
// were transformed before are answered from the cache.
func WithCache(dbPath string) Option {
	return func(e *Engine) {
		e.cachePath = dbPath
	}
}

// WithPolicyDir sets the directory policy scripts and their imports are
// loaded from.
func WithPolicyDir(dir string) Option {
	return func(e *Engine) {
		e.policyDir = dir
	}
}

// WithPolicyFS loads policy scripts from fsys instead of from disk. This
// enables embedding policies via go:embed.
func WithPolicyFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.policyFS = fsys
	}
}

// WithLogger routes engine and policy logs to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCollapseImports keeps fully emptied imports as `import "m"`.
func WithCollapseImports(collapse bool) Option {
	return func(e *Engine) {
		e.collapseImports = collapse
	}
}

// New creates an Engine. When a cache is configured the database is
// migrated, and results written by a different Version are dropped.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:      zerolog.Nop(),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(e.logger)}
	if e.policyFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.policyFS))
	}
	e.runtime = runtime.NewRuntime(e.policyDir, rtOpts...)

	if e.cachePath == "" {
		return e, nil
	}
	s, err := store.NewStore(e.cachePath)
	if err != nil {
		return nil, fmt.Errorf("unexport: open cache: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("unexport: migrate: %w", err)
	}
	if err := checkVersion(s, e.logger); err != nil {
		s.Close()
		return nil, err
	}
	e.store = s
	return e, nil
}

func checkVersion(s *store.Store, logger zerolog.Logger) error {
	stored, err := s.GetMetadata(versionKey)
	if err != nil {
		return fmt.Errorf("unexport: read cache version: %w", err)
	}
	if stored == Version {
		return nil
	}
	if stored != "" {
		logger.Info().Str("cached", stored).Str("current", Version).Msg("cache written by another version, purging")
		if err := s.PurgeResults(); err != nil {
			return fmt.Errorf("unexport: purge cache: %w", err)
		}
	}
	if err := s.SetMetadata(versionKey, Version); err != nil {
		return fmt.Errorf("unexport: write cache version: %w", err)
	}
	return nil
}

// Close releases the cache database, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the cache, or nil when the Engine runs without one.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Job is one file to transform.
type Job struct {
	// Path locates the source. It also labels results and cache records.
	Path string
	// Source, when non-nil, is used instead of reading Path.
	Source []byte
	// Language overrides detection from the file extension.
	Language parser.Language
	// Remove lists the export names to remove.
	Remove []string
	// Policy names a Risor script, relative to the policy directory, whose
	// result replaces Remove.
	Policy string
	// Out, when set, receives the transformed module.
	Out string
}

// FileResult is the outcome of one Job. Err is set when the job failed;
// the other fields are then zero.
type FileResult struct {
	Path     string        `json:"path"`
	Out      string        `json:"out,omitempty"`
	Code     []byte        `json:"-"`
	Report   Report        `json:"report"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ProcessFiles runs every job and returns one FileResult per job, in job
// order. Failing jobs do not stop the others; their errors are aggregated
// into the returned error.
func (e *Engine) ProcessFiles(ctx context.Context, jobs []Job) ([]FileResult, error) {
	if e.useParallel {
		return e.processParallel(ctx, jobs)
	}
	return e.processSerial(ctx, jobs)
}

func (e *Engine) processSerial(ctx context.Context, jobs []Job) ([]FileResult, error) {
	results := make([]FileResult, len(jobs))
	var errs []error
	for i, job := range jobs {
		item, err := e.prepare(ctx, i, job)
		if err == nil && !item.cached {
			var ds store.DataStore
			if e.store != nil {
				ds = e.store
			}
			err = e.transform(ctx, &item, ds)
		}
		if err == nil {
			err = e.finish(&item)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("process %s: %w", job.Path, err))
			results[i] = FileResult{Path: job.Path, Err: err}
			continue
		}
		results[i] = item.result
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("processing had %d error(s): %w", len(errs), errs[0])
	}
	return results, nil
}

// workItem carries one job through the pipeline.
type workItem struct {
	index   int
	job     Job
	lang    parser.Language
	src     []byte
	policy  string // script source, empty without a policy
	key     string
	fileID  *int64
	cached  bool
	started time.Time
	batch   *store.BatchedStore
	result  FileResult
}

// prepare reads the source, resolves language and policy, and answers the
// job from the cache when possible. It touches the database and must run
// serially.
func (e *Engine) prepare(ctx context.Context, index int, job Job) (workItem, error) {
	item := workItem{index: index, job: job, started: time.Now()}
	if err := ctx.Err(); err != nil {
		return item, err
	}

	item.src = job.Source
	if item.src == nil {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return item, fmt.Errorf("read file: %w", err)
		}
		item.src = data
	}

	item.lang = job.Language
	if item.lang == "" {
		lang, ok := parser.LanguageForFile(job.Path)
		if !ok {
			return item, fmt.Errorf("unsupported file extension %q", filepath.Ext(job.Path))
		}
		item.lang = lang
	}

	keyNames := append([]string(nil), job.Remove...)
	if job.Policy != "" {
		src, err := e.runtime.LoadScript(job.Policy)
		if err != nil {
			return item, err
		}
		item.policy = src
		// Policies see the path, so it is part of the input.
		keyNames = append(keyNames, fmt.Sprintf("\x00policy:%s:%s:%x", job.Policy, job.Path, sha256.Sum256([]byte(src))))
	}
	item.key = store.ComputeResultKey(Version, string(item.lang), item.src, keyNames)

	if e.store == nil {
		return item, nil
	}
	fileID, err := e.recordFile(job.Path, item.lang, item.src)
	if err != nil {
		return item, err
	}
	item.fileID = fileID

	cached, err := e.store.ResultByKey(item.key)
	if err != nil {
		return item, fmt.Errorf("cache lookup: %w", err)
	}
	if cached != nil {
		item.cached = true
		item.result = FileResult{
			Path:   job.Path,
			Out:    job.Out,
			Code:   cached.Output,
			Cached: true,
			Report: Report{
				Requested:       normalizeNames(job.Remove),
				RemovedExports:  cached.RemovedExports,
				RemovedBindings: cached.RemovedBindings,
			},
		}
	}
	return item, nil
}

// recordFile upserts the file row. A changed hash drops the results cached
// for the previous content.
func (e *Engine) recordFile(path string, lang parser.Language, src []byte) (*int64, error) {
	if path == "" {
		return nil, nil
	}
	hash := store.ContentHash(src)
	existing, err := e.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return &existing.ID, nil
	}
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return nil, fmt.Errorf("delete old data: %w", err)
		}
	}
	id, err := e.store.InsertFile(&store.File{
		Path:          path,
		Language:      string(lang),
		Hash:          hash,
		LastProcessed: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return &id, nil
}

// transform parses, applies the policy and removal, and prints one item.
// It is safe to run concurrently for distinct items. The result is written
// to ds when ds is non-nil.
func (e *Engine) transform(ctx context.Context, item *workItem, ds store.DataStore) error {
	m, err := parser.Parse(ctx, item.src, item.lang)
	if err != nil {
		return err
	}

	removals := item.job.Remove
	if item.policy != "" {
		removals, err = e.runtime.RunPolicySource(ctx, item.policy, runtime.PolicyInput{
			Path:      item.job.Path,
			Language:  string(item.lang),
			Exports:   Exports(m),
			Requested: normalizeNames(item.job.Remove),
		})
		if err != nil {
			return err
		}
	}

	res, err := RemoveExports(m, removals, CollapseImports(e.collapseImports))
	if err != nil {
		return err
	}
	code := printer.Print(res.Module)

	if ds != nil {
		if _, err := ds.InsertResult(&store.Result{
			Key:             item.key,
			FileID:          item.fileID,
			Output:          code,
			RemovedBindings: res.Report.RemovedBindings,
			RemovedExports:  res.Report.RemovedExports,
			CreatedAt:       time.Now(),
		}); err != nil {
			return fmt.Errorf("cache insert: %w", err)
		}
	}

	item.result = FileResult{
		Path:   item.job.Path,
		Out:    item.job.Out,
		Code:   code,
		Report: res.Report,
	}
	return nil
}

// finish writes the output file and logs the outcome.
func (e *Engine) finish(item *workItem) error {
	if out := item.job.Out; out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(out, item.result.Code, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	item.result.Duration = time.Since(item.started)
	e.logger.Debug().
		Str("file", item.job.Path).
		Strs("removed", item.result.Report.RemovedExports).
		Bool("cached", item.result.Cached).
		Dur("duration", item.result.Duration).
		Msg("processed")
	return nil
}

func normalizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	return liveness.NewRequest(names...).Names()
}
