// Package scanner discovers template files under the configured roots and
// checks them concurrently.
//
// Discovery walks each root in lexical order, honouring extension filters,
// regular-expression excludes matched against absolute paths, and optionally
// the root's .gitignore. Checking runs on a bounded worker pool; results are
// returned in discovery order regardless of which worker finished first, so a
// run over an unchanged tree always yields the same report.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/conneroisu/taglint/internal/charset"
	"github.com/conneroisu/taglint/internal/checker"
	"github.com/conneroisu/taglint/internal/errors"
	"github.com/conneroisu/taglint/internal/logging"
)

// DefaultExtension is always checked in directories.
const DefaultExtension = ".jsp"

// Options control discovery and checking.
type Options struct {
	// Extensions checked in directories in addition to DefaultExtension.
	Extensions []string
	// Exclude patterns are searched for in absolute paths of files and directories.
	Exclude          []*regexp.Regexp
	RespectGitignore bool
	Charset          string
	// Workers bounds concurrent file checks; zero means NumCPU capped at 8.
	Workers int
	// MaxFileSize rejects larger files when positive.
	MaxFileSize int64
	// FailFast stops the run at the first unreadable file.
	FailFast bool
}

// Result is the outcome of one run.
type Result struct {
	// Files holds a result for every file checked, in discovery order.
	Files []*checker.FileResult
	// Errors holds the files that could not be checked.
	Errors []error
}

// WithViolations returns the files that have at least one violation.
func (r *Result) WithViolations() []*checker.FileResult {
	var out []*checker.FileResult
	for _, f := range r.Files {
		if len(f.Violations) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// ViolationCount sums violations over all files.
func (r *Result) ViolationCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Violations)
	}
	return n
}

// Scanner drives discovery and checking.
type Scanner struct {
	checker *checker.Checker
	opts    Options
	logger  logging.Logger
}

// New creates a scanner. A nil logger discards output.
func New(c *checker.Checker, opts Options, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	return &Scanner{
		checker: c,
		opts:    opts,
		logger:  logger.WithComponent("scanner"),
	}
}

// DefaultWorkers returns NumCPU capped at 8.
func DefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return workers
}

// Discover lists the files to check under paths. A path naming a file is
// returned as is unless excluded; a directory is walked recursively. Paths
// are absolute and, per root, in lexical order.
func (s *Scanner) Discover(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		found, err := s.discoverRoot(ctx, p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	s.logger.Debug(ctx, "Files discovered", "roots", len(paths), "files", len(files))
	return files, nil
}

func (s *Scanner) discoverRoot(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidPath, "invalid path").WithLocation(root, 0, 0)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound(root)
		}
		return nil, errors.ErrUnreadable(root, err)
	}

	if !info.IsDir() {
		if s.excluded(abs) {
			s.logger.Debug(ctx, "Skipping excluded file", "path", abs)
			return nil, nil
		}
		return []string{abs}, nil
	}

	var gi *ignore.GitIgnore
	if s.opts.RespectGitignore {
		gi = loadGitignore(abs)
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != abs {
				s.logger.Warn(ctx, err, "Skipping unreadable directory", "path", path)
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != abs {
			if s.excluded(path) {
				s.logger.Debug(ctx, "Skipping excluded path", "path", path)
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if gi != nil && ignored(gi, abs, path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() || !s.matchesExtension(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// Run discovers and checks every file under paths.
func (s *Scanner) Run(ctx context.Context, paths []string) (*Result, error) {
	files, err := s.Discover(ctx, paths)
	if err != nil {
		return nil, err
	}
	return s.CheckFiles(ctx, files)
}

// CheckFiles checks the given files on the worker pool. Unreadable files are
// collected in Result.Errors unless FailFast is set, in which case the first
// one is returned.
func (s *Scanner) CheckFiles(ctx context.Context, files []string) (*Result, error) {
	perf := logging.StartOperation(s.logger, "check")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*checker.FileResult, len(files))
	collector := errors.NewErrorCollector()

	var (
		firstErr  error
		firstOnce sync.Once
	)
	pool := newWorkerPool(s.opts.Workers, func(job scanJob) {
		res, err := s.CheckFile(ctx, job.path)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn(ctx, err, "Skipping unreadable file", "path", job.path)
			collector.Add(err)
			if s.opts.FailFast {
				firstOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
			return
		}
		results[job.index] = res
	})

	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		pool.submit(ctx, scanJob{index: i, path: path})
	}
	pool.wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Result{Errors: collector.Errors()}
	for _, r := range results {
		if r != nil {
			out.Files = append(out.Files, r)
		}
	}
	perf.End(ctx, "files", len(out.Files), "violations", out.ViolationCount(), "errors", len(out.Errors))
	return out, nil
}

// CheckFile checks one file.
func (s *Scanner) CheckFile(ctx context.Context, path string) (*checker.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.opts.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.ErrUnreadable(path, err)
		}
		if info.Size() > s.opts.MaxFileSize {
			return nil, errors.NewIOError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), s.opts.MaxFileSize), nil).
				WithLocation(path, 0, 0)
		}
	}

	r, err := charset.Open(path, s.opts.Charset)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res, err := s.checker.CheckReader(path, r)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "File checked",
		"path", path,
		"tags", res.Tags,
		"violations", len(res.Violations),
		"discarded", res.Discarded,
		"dropped_attributes", res.DroppedAttributes,
	)
	return res, nil
}

func (s *Scanner) excluded(absPath string) bool {
	for _, re := range s.opts.Exclude {
		if re.MatchString(absPath) {
			return true
		}
	}
	return false
}

func (s *Scanner) matchesExtension(name string) bool {
	if strings.HasSuffix(name, DefaultExtension) {
		return true
	}
	for _, ext := range s.opts.Extensions {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

func ignored(gi *ignore.GitIgnore, root, path string, dir bool) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if dir {
		return gi.MatchesPath(rel) || gi.MatchesPath(rel+"/")
	}
	return gi.MatchesPath(rel)
}
