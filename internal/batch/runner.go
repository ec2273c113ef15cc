// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meshintel/docbatch/internal/analyze"
	"github.com/meshintel/docbatch/internal/history"
	"github.com/meshintel/docbatch/internal/ledger"
	"github.com/meshintel/docbatch/pkg/types"
)

// defaultWorkers bounds parallelism when the caller does not choose a pool size.
const defaultWorkers = 4

// Options configures a batch run.
type Options struct {
	// InputDir is scanned (non-recursively) for .pdf files.
	InputDir string

	// OutputRoot receives per-document output directories and the shared
	// markdown collection directory.
	OutputRoot string

	// Workers is the fixed pool size. Zero or negative selects the default.
	Workers int

	// LedgerPath is the processed-files ledger location. Empty selects
	// ledger.DefaultPath.
	LedgerPath string
}

// BatchResult summarizes a run.
type BatchResult struct {
	// Processed counts newly successful files.
	Processed int

	// Failed counts files whose worker returned a failure.
	Failed int

	// Skipped counts files already present in the ledger.
	Skipped int
}

// Total returns the number of candidate input files.
func (r BatchResult) Total() int {
	return r.Processed + r.Failed + r.Skipped
}

// HasFailures reports whether any file failed processing.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Run enumerates PDFs in the input directory, filters out files already in
// the ledger, and dispatches the rest across a fixed-size pool of workers.
// Completions are handled in whatever order the pool yields them; after
// every success the ledger is updated and saved before the next completion
// is considered, so a killed run loses at most its in-flight files.
//
// Worker failures are logged and dropped — the file stays out of the ledger
// and is retried on the next invocation. Ledger I/O errors abort the run.
// When hist is non-nil the run and its per-file outcomes are recorded there.
func Run(p analyze.Pipeline, opts Options, hist *history.Store, w io.Writer) (BatchResult, error) {
	started := time.Now().UTC()

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	ledgerPath := opts.LedgerPath
	if ledgerPath == "" {
		ledgerPath = ledger.DefaultPath
	}

	if err := os.MkdirAll(opts.OutputRoot, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output root %s: %w", opts.OutputRoot, err)
	}

	processed, err := ledger.Load(ledgerPath)
	if err != nil {
		return BatchResult{}, err
	}

	all, err := listPDFs(opts.InputDir)
	if err != nil {
		return BatchResult{}, err
	}

	var pending []string
	for _, name := range all {
		if !processed.Contains(name) {
			pending = append(pending, name)
		}
	}

	result := BatchResult{Skipped: len(all) - len(pending)}
	fmt.Fprintf(w, "found %d PDF file(s): %d already processed, %d pending\n",
		len(all), result.Skipped, len(pending))

	tasks := make(chan types.Task)
	results := make(chan types.Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results <- Process(p, t)
			}
		}()
	}

	go func() {
		for _, name := range pending {
			tasks <- types.Task{
				PDFPath:    filepath.Join(opts.InputDir, name),
				OutputRoot: opts.OutputRoot,
			}
		}
		close(tasks)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// The runner is the only writer of the ledger; workers touch nothing
	// shared beyond their own output directories.
	var outcomes []history.FileOutcome
	var saveErr error
	for res := range results {
		if saveErr != nil {
			continue // drain remaining completions
		}

		if res.Failed() {
			fmt.Fprintf(w, "failed:    %s (%v)\n", res.Name, res.Err)
			result.Failed++
			outcomes = append(outcomes, history.FileOutcome{
				Name:       res.Name,
				Outcome:    history.OutcomeFailed,
				Diagnostic: res.Err.Error(),
			})
			continue
		}

		processed.Add(res.Name)
		if err := ledger.Save(ledgerPath, processed); err != nil {
			saveErr = err
			continue
		}
		fmt.Fprintf(w, "processed: %s (%s mode)\n", res.Name, res.Mode)
		result.Processed++
		outcomes = append(outcomes, history.FileOutcome{
			Name:    res.Name,
			Outcome: history.OutcomeProcessed,
			Mode:    res.Mode,
		})
	}
	if saveErr != nil {
		return result, saveErr
	}

	if err := ledger.Save(ledgerPath, processed); err != nil {
		return result, err
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d failed, %d skipped (total: %d)\n",
		result.Processed, result.Failed, result.Skipped, result.Total())

	if hist != nil {
		rec := history.RunRecord{
			Started:   started,
			Finished:  time.Now().UTC(),
			InputDir:  opts.InputDir,
			Processed: result.Processed,
			Failed:    result.Failed,
			Skipped:   result.Skipped,
			Files:     outcomes,
		}
		if _, err := hist.RecordRun(context.Background(), rec); err != nil {
			fmt.Fprintf(w, "warning: run history write failed: %v\n", err)
		}
	}

	return result, nil
}

// listPDFs returns the base names of .pdf files directly under dir, sorted.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
