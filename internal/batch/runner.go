// Package batch runs document extraction over a directory with a bounded
// worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

// OpenFunc turns a path into a page source.
type OpenFunc func(path string) (extract.Source, error)

type Runner struct {
	Extractor extract.Extractor
	Open      OpenFunc
	Options   extract.Options
	Workers   int
	Timeout   time.Duration
	Log       *slog.Logger

	// Progress, when set, is called once per finished document. Calls are
	// serialised.
	Progress func(done, total int, doc extract.Document)
}

type Summary struct {
	Total          int
	Processed      int
	AbstractsFound int
	Errors         int
}

type Report struct {
	RunID     string
	Documents []extract.Document
	Summary   Summary
	Elapsed   time.Duration
}

// Run extracts every path. Per-document failures become error records.
// When ctx is cancelled no new documents are started and in-flight ones
// are told to stop; the documents that finished are returned together
// with ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	runID := uuid.New().String()
	log = log.With("run", runID)
	start := time.Now()
	log.Info("batch started", "documents", len(paths), "workers", workers, "timeout", r.Timeout)

	results := make([]extract.Document, len(paths))
	finished := make([]bool, len(paths))

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(workers)

	var runErr error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		g.Go(func() error {
			// Submission may have waited for a free slot.
			if ctx.Err() != nil {
				return nil
			}
			doc, ok := r.one(ctx, path, log)
			if !ok {
				return nil
			}
			results[i] = doc
			finished[i] = true

			mu.Lock()
			done++
			if r.Progress != nil {
				r.Progress(done, len(paths), doc)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	rep := &Report{RunID: runID, Elapsed: time.Since(start)}
	rep.Summary.Total = len(paths)
	for i, doc := range results {
		if !finished[i] {
			continue
		}
		rep.Documents = append(rep.Documents, doc)
		rep.Summary.Processed++
		switch {
		case doc.Err != nil:
			rep.Summary.Errors++
		case !extract.IsSentinel(doc.Abstract) && !extract.IsErrorText(doc.Abstract):
			rep.Summary.AbstractsFound++
		}
	}
	log.Info("batch finished",
		"processed", rep.Summary.Processed,
		"abstracts", rep.Summary.AbstractsFound,
		"errors", rep.Summary.Errors,
		"elapsed", rep.Elapsed.Round(time.Millisecond))
	if runErr != nil {
		return rep, fmt.Errorf("batch interrupted: %w", runErr)
	}
	return rep, nil
}

// one extracts a single document. An extraction that outlives the timeout
// is abandoned and reported as an error. ok is false when the batch was
// cancelled before the document produced a result; such documents are left
// out of the report rather than recorded as failures.
func (r *Runner) one(ctx context.Context, path string, log *slog.Logger) (doc extract.Document, ok bool) {
	name := filepath.Base(path)
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan extract.Document, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- extract.ErrorDocument(name, fmt.Errorf("panic: %v", rec))
			}
		}()
		src, err := r.Open(path)
		if err != nil {
			ch <- extract.ErrorDocument(name, fmt.Errorf("open: %w", err))
			return
		}
		ch <- r.Extractor.Extract(dctx, name, src, r.Options)
	}()

	var deadline <-chan time.Time
	if r.Timeout > 0 {
		timer := time.NewTimer(r.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case doc = <-ch:
	case <-deadline:
		doc = extract.ErrorDocument(name, fmt.Errorf("extraction abandoned: %w", context.DeadlineExceeded))
	}
	if doc.Err != nil && ctx.Err() != nil && errors.Is(doc.Err, ctx.Err()) {
		log.Debug("document interrupted", "file", name)
		return extract.Document{}, false
	}
	doc.Path = path
	if doc.Err != nil {
		log.Warn("document failed", "file", name, "error", doc.Err)
	} else {
		log.Debug("document done", "file", name, "abstract_found", !extract.IsSentinel(doc.Abstract))
	}
	return doc, true
}
