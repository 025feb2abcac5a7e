package schema

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/snipmark/pkg/safeio"
)

const defaultMaxSchemaSize = 10 * 1024 * 1024 // 10MB

// BatchOptions tunes concurrent schema lint runs.
type BatchOptions struct {
	MaxConcurrency int
	MaxFileSize    int64
	Timeout        time.Duration
}

// BatchResult aggregates lint outcomes across schema files.
type BatchResult struct {
	Valid        bool
	TotalFiles   int
	ValidFiles   int
	InvalidFiles int
	Summary      []string
	FileResults  map[string]*Result
}

// LintFiles checks that every path holds a schema satisfying the snippet
// schema contract. Files are processed concurrently; per-file failures land
// in the result rather than aborting the batch.
func LintFiles(paths []string, opts BatchOptions) (*BatchResult, error) {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.NumCPU()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxSchemaSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrency)

	var mu sync.Mutex
	results := make(map[string]*Result, len(paths))
	validCount := 0

	for _, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res := lintFile(path, opts.MaxFileSize)
			mu.Lock()
			results[path] = res
			if res.Valid {
				validCount++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := len(paths)
	invalid := total - validCount
	return &BatchResult{
		Valid:        total > 0 && invalid == 0,
		TotalFiles:   total,
		ValidFiles:   validCount,
		InvalidFiles: invalid,
		Summary:      []string{fmt.Sprintf("Total: %d, Valid: %d, Invalid: %d", total, validCount, invalid)},
		FileResults:  results,
	}, nil
}

func lintFile(path string, maxSize int64) *Result {
	invalid := func(msg string) *Result {
		return &Result{Valid: false, Errors: []ValidationError{{Path: "/", Message: msg}}}
	}

	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return invalid(fmt.Sprintf("path sanitization failed: %v", err))
	}
	info, err := os.Stat(clean)
	if err != nil {
		return invalid(fmt.Sprintf("cannot stat file: %v", err))
	}
	if info.Size() > maxSize {
		return invalid(fmt.Sprintf("file size %d exceeds limit %d", info.Size(), maxSize))
	}
	raw, err := os.ReadFile(clean) // #nosec G304 -- clean sanitized with safeio.CleanUserPath
	if err != nil {
		return invalid(fmt.Sprintf("cannot read file: %v", err))
	}
	if _, err := Compile(raw); err != nil {
		return invalid(err.Error())
	}
	return &Result{Valid: true}
}
