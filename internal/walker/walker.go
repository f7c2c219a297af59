// Package walker discovers C/C++ translation units and drives extraction
// across them with a bounded worker pool. Each worker owns its own
// extractor (and therefore its own AST-node cache); results are merged
// into the shared store under its single writer lock.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/pointa/internal/ast"
	"github.com/oxhq/pointa/internal/diag"
	"github.com/oxhq/pointa/internal/extractor"
	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/srcmgr"
	"github.com/oxhq/pointa/internal/store"
)

// defaultPatterns matches the translation-unit extensions the bundled
// tree-sitter cpp adapter understands.
var defaultPatterns = []string{"**/*.c", "**/*.cc", "**/*.cpp", "**/*.cxx", "**/*.h", "**/*.hpp"}

// Walker discovers files under a root and extracts constraints from each,
// fanning work out across a worker pool (runtime.NumCPU-scaled, tuned for
// I/O-bound work).
type Walker struct {
	Workers  int
	Patterns []string

	// Files canonicalizes and content-hashes every discovered path, so
	// repeated runs see a stable identity per file.
	Files *srcmgr.Manager
}

// New returns a Walker with a default worker count and the bundled C/C++
// extension patterns.
func New() *Walker {
	return &Walker{
		Workers:  runtime.NumCPU() * 2,
		Patterns: defaultPatterns,
		Files:    srcmgr.New(),
	}
}

// Discover returns every file under root matching the walker's patterns.
func (w *Walker) Discover(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if w.matches(rel) || w.matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (w *Walker) matches(path string) bool {
	for _, pattern := range w.Patterns {
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(path)); ok {
			return true
		}
	}
	return false
}

// Stats summarizes one Run invocation.
type Stats struct {
	FilesProcessed    int
	ConstraintsStored int
}

// Run parses and extracts every discovered file through source,
// persisting results into st. Extraction runs on w.Workers goroutines;
// persistence is serialized by st's own writer lock.
func (w *Walker) Run(ctx context.Context, root string, runID string, source ast.Source, st *store.Store) (Stats, diag.Bag, error) {
	files, err := w.Discover(ctx, root)
	if err != nil {
		return Stats{}, diag.Bag{}, fmt.Errorf("walker: discover %s: %w", root, err)
	}

	paths := make(chan string, len(files))
	for _, f := range files {
		paths <- f
	}
	close(paths)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		stats    Stats
		diags    diag.Bag
		firstErr error
	)

	workers := w.Workers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				select {
				case <-ctx.Done():
					return
				default:
				}

				var handle *srcmgr.FileHandle
				if w.Files != nil {
					h, err := w.Files.GetFile(path)
					if err != nil {
						mu.Lock()
						diags.Warn(model.ECTransient, path, 0, 0, "read failed: %v", err)
						mu.Unlock()
						continue
					}
					handle = h
					path = h.Path
				}

				content, err := os.ReadFile(path)
				if err != nil {
					mu.Lock()
					diags.Warn(model.ECTransient, path, 0, 0, "read failed: %v", err)
					mu.Unlock()
					continue
				}

				tu, err := source.Parse(path, content)
				if err != nil {
					mu.Lock()
					diags.Warn(model.ECMalformedAST, path, 0, 0, "parse failed: %v", err)
					mu.Unlock()
					continue
				}

				if handle != nil {
					handle.Type = strings.TrimPrefix(filepath.Ext(path), ".")
					w.Files.UpdateFile(handle)
				}

				ex := extractor.New()
				result := ex.Extract(tu)

				if err := st.Put(ctx, runID, result.Constraints, result.Nodes); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("walker: persist %s: %w", path, err)
					}
					diags.Error(model.ECStoreFailure, path, 0, 0, "persist failed: %v", err)
					mu.Unlock()
					continue
				}

				mu.Lock()
				stats.FilesProcessed++
				stats.ConstraintsStored += len(result.Constraints)
				diags.Merge(&result.Diagnostics)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return stats, diags, firstErr
}
