// Package download implements the Download Pool (§4.D): given a task's
// ordered inputs, it fetches each one concurrently into work_dir,
// staggering start times to avoid bursting the upstream platform's
// rate limiter, and returns results in original input order. A single
// failed input fails the whole task; no partial merges are permitted.
package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("download")

// DefaultStagger is the inter-start delay between successive downloads
// (§4.D default: 5s).
const DefaultStagger = 5 * time.Second

// Fetch resolves one task.Input to a local file under destDir, naming
// it however the caller's strategy prefers; the pool prefixes the
// returned basename with the NNN_ index discipline itself. Callers
// supply one Fetch per input kind (chat message download, universal
// URL ingest, torrent RPC) via a router in internal/engine; this
// package knows nothing about chat transports or fetch strategies.
type Fetch func(ctx context.Context, in task.Input, destDir string) (string, error)

// Result is one completed download, still keyed by the input's stable
// index so later stages process in input order regardless of
// completion order.
type Result struct {
	Index int
	Path  string
}

// Pool runs a task's downloads with staggered starts.
type Pool struct {
	Stagger time.Duration
}

// New returns a Pool using stagger as the inter-start delay; zero means
// DefaultStagger.
func New(stagger time.Duration) *Pool {
	if stagger <= 0 {
		stagger = DefaultStagger
	}
	return &Pool{Stagger: stagger}
}

// Run downloads every input in t.Inputs concurrently, staggered by
// index, and returns (index, path) pairs in t.Inputs order. The first
// input to fail cancels t immediately, so later-staggered and
// in-flight siblings abort rather than run to completion; Run still
// waits for every goroutine to unwind before returning, so none
// outlives Run, then returns the causing error.
func (p *Pool) Run(ctx context.Context, t *task.Task, fetch Fetch) ([]task.Downloaded, error) {
	n := len(t.Inputs)
	if n == 0 {
		return nil, nil
	}

	results := make([]task.Downloaded, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)

	var causeOnce sync.Once
	causeIdx := -1

	for i, in := range t.Inputs {
		go func(idx int, input task.Input) {
			defer wg.Done()

			delay := time.Duration(idx) * p.Stagger
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case <-t.Context().Done():
				errs[idx] = t.Context().Err()
				return
			}

			select {
			case <-t.Context().Done():
				errs[idx] = t.Context().Err()
				return
			default:
			}

			t.IncDownloadsStarted()
			logger.Debug("download starting", "task_id", t.ID, "index", idx)

			destDir := t.WorkDir
			rawPath, err := fetch(t.Context(), input, destDir)
			if err != nil {
				errs[idx] = err
				causeOnce.Do(func() { causeIdx = idx })
				t.Cancel()
				return
			}

			named := filepath.Join(destDir, fmt.Sprintf("%03d_%s", idx, filepath.Base(rawPath)))
			if named != rawPath {
				if err := renameInto(rawPath, named); err != nil {
					errs[idx] = err
					causeOnce.Do(func() { causeIdx = idx })
					t.Cancel()
					return
				}
			}

			t.IncDownloadsCompleted()
			results[idx] = task.Downloaded{Index: idx, Path: named}
			logger.Debug("download complete", "task_id", t.ID, "index", idx, "path", named)
		}(i, in)
	}

	wg.Wait()

	for i, err := range errs {
		if causeIdx >= 0 {
			i, err = causeIdx, errs[causeIdx]
		}
		if err != nil {
			t.Cancel()
			logger.Warn("download pool failing task", "task_id", t.ID, "failed_index", i, "error", err)
			return nil, xerrors.New(err).
				Category(xerrors.CategoryDownload).
				Component("download").
				Context("task_id", t.ID).
				Context("failed_index", i).
				Build()
		}
	}

	return results, nil
}
