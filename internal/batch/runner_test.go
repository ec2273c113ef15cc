// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/meshintel/docbatch/internal/history"
	"github.com/meshintel/docbatch/internal/ledger"
)

func runOptions(t *testing.T, inDir string) Options {
	t.Helper()
	workDir := t.TempDir()
	return Options{
		InputDir:   inDir,
		OutputRoot: filepath.Join(workDir, "output"),
		Workers:    2,
		LedgerPath: filepath.Join(workDir, "processed_files.json"),
	}
}

func TestRunProcessesAllThenSkipsAll(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")
	writePDF(t, inDir, "b.pdf", "%PDF text b")

	p := &fakePipeline{}
	opts := runOptions(t, inDir)

	var log bytes.Buffer
	result, err := Run(p, opts, nil, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Processed != 2 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("first run = %+v, want 2 processed", result)
	}

	led, err := ledger.Load(opts.LedgerPath)
	if err != nil {
		t.Fatalf("loading ledger: %v", err)
	}
	if got, want := led.Names(), []string{"a.pdf", "b.pdf"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ledger = %v, want %v", got, want)
	}

	entries, err := os.ReadDir(filepath.Join(opts.OutputRoot, "markdowns"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("markdowns/ has %d files, want 2", len(entries))
	}

	// Second invocation over unchanged inputs dispatches nothing.
	firstCalls := p.calls()
	var log2 bytes.Buffer
	result2, err := Run(p, opts, nil, &log2)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result2.Processed != 0 || result2.Skipped != 2 {
		t.Errorf("second run = %+v, want 0 processed, 2 skipped", result2)
	}
	if p.calls() != firstCalls {
		t.Errorf("second run performed %d extra analysis calls", p.calls()-firstCalls)
	}
	if !strings.Contains(log2.String(), "2 already processed, 0 pending") {
		t.Errorf("second run preamble missing, got: %s", log2.String())
	}

	led2, err := ledger.Load(opts.LedgerPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(led2.Names(), led.Names()) {
		t.Error("ledger changed on a run that processed nothing")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")
	writePDF(t, inDir, "bad.pdf", "corrupt garbage")
	writePDF(t, inDir, "c.pdf", "%PDF text c")

	opts := runOptions(t, inDir)
	var log bytes.Buffer
	result, err := Run(&fakePipeline{}, opts, nil, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Processed != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 2 processed, 1 failed", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}

	led, err := ledger.Load(opts.LedgerPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := led.Names(), []string{"a.pdf", "c.pdf"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ledger = %v, want %v", got, want)
	}

	if !strings.Contains(log.String(), "failed:") || !strings.Contains(log.String(), "bad.pdf") {
		t.Errorf("log should name the failing file, got: %s", log.String())
	}

	// The failed file is retried on the next run.
	var log2 bytes.Buffer
	result2, err := Run(&fakePipeline{}, opts, nil, &log2)
	if err != nil {
		t.Fatal(err)
	}
	if result2.Skipped != 2 || result2.Failed != 1 {
		t.Errorf("retry run = %+v, want 2 skipped, 1 failed", result2)
	}
}

func TestRunIgnoresNonPDFEntries(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")
	writePDF(t, inDir, "notes.txt", "not a pdf")
	writePDF(t, inDir, "B.PDF", "%PDF text b")
	if err := os.MkdirAll(filepath.Join(inDir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	opts := runOptions(t, inDir)
	var log bytes.Buffer
	result, err := Run(&fakePipeline{}, opts, nil, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Total() != 2 {
		t.Errorf("total = %d, want 2 (a.pdf and B.PDF)", result.Total())
	}
}

func TestRunFailsOnCorruptLedger(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")

	opts := runOptions(t, inDir)
	if err := os.WriteFile(opts.LedgerPath, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &fakePipeline{}
	var log bytes.Buffer
	if _, err := Run(p, opts, nil, &log); err == nil {
		t.Fatal("expected error for corrupt ledger")
	}
	if p.calls() != 0 {
		t.Error("no work should be dispatched when the ledger is unreadable")
	}
}

func TestRunFailsOnMissingInputDir(t *testing.T) {
	opts := runOptions(t, filepath.Join(t.TempDir(), "nope"))
	var log bytes.Buffer
	if _, err := Run(&fakePipeline{}, opts, nil, &log); err == nil {
		t.Fatal("expected error for missing input directory")
	}
}

func TestRunRecordsHistory(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")
	writePDF(t, inDir, "bad.pdf", "corrupt garbage")

	opts := runOptions(t, inDir)
	hist, err := history.Open(opts.OutputRoot)
	if err != nil {
		t.Fatal(err)
	}
	defer hist.Close()

	var log bytes.Buffer
	if _, err := Run(&fakePipeline{}, opts, hist, &log); err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := hist.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(runs))
	}
	if runs[0].Processed != 1 || runs[0].Failed != 1 {
		t.Errorf("recorded run = %+v, want 1 processed, 1 failed", runs[0])
	}

	files, err := hist.RunFiles(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("recorded %d file outcomes, want 2", len(files))
	}
}

func TestRunDefaultsWorkerCount(t *testing.T) {
	inDir := t.TempDir()
	writePDF(t, inDir, "a.pdf", "%PDF text a")

	opts := runOptions(t, inDir)
	opts.Workers = 0

	var log bytes.Buffer
	result, err := Run(&fakePipeline{}, opts, nil, &log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}
}
