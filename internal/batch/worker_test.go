// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meshintel/docbatch/internal/analyze"
	"github.com/meshintel/docbatch/internal/metadata"
	"github.com/meshintel/docbatch/pkg/types"
)

// fakePipeline implements analyze.Pipeline for testing. Inputs containing
// "corrupt" fail classification; inputs containing "scanned" classify as
// OCR. Analyze calls are counted so tests can assert how much work ran.
type fakePipeline struct {
	mu           sync.Mutex
	analyzeCalls int
}

func (f *fakePipeline) Classify(pdf []byte) (types.ParseMode, error) {
	if bytes.Contains(pdf, []byte("corrupt")) {
		return "", errors.New("unreadable document structure")
	}
	if bytes.Contains(pdf, []byte("scanned")) {
		return types.ModeOCR, nil
	}
	return types.ModeText, nil
}

func (f *fakePipeline) Analyze(pdf []byte, mode types.ParseMode) (*analyze.Document, error) {
	f.mu.Lock()
	f.analyzeCalls++
	f.mu.Unlock()

	return &analyze.Document{
		Markdown:    []byte("# Extracted\n\n![](fig1.png)\n"),
		Layout:      []byte("%PDF layout"),
		Spans:       []byte("%PDF spans"),
		ContentList: []byte(`[{"type":"text"}]`),
		MiddleJSON:  []byte(`{"pages":1}`),
		Images:      map[string][]byte{"fig1.png": []byte("png")},
	}, nil
}

func (f *fakePipeline) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls
}

func writePDF(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessWritesFullArtifactSet(t *testing.T) {
	inDir := t.TempDir()
	outRoot := t.TempDir()
	pdfPath := writePDF(t, inDir, "doc.pdf", "%PDF scanned content")

	res := Process(&fakePipeline{}, types.Task{PDFPath: pdfPath, OutputRoot: outRoot})
	if res.Failed() {
		t.Fatalf("Process failed: %v", res.Err)
	}
	if res.Name != "doc.pdf" {
		t.Errorf("result name = %q, want %q", res.Name, "doc.pdf")
	}
	if res.Mode != types.ModeOCR {
		t.Errorf("result mode = %q, want %q", res.Mode, types.ModeOCR)
	}

	for _, rel := range []string{
		"doc/doc.md",
		"doc/doc_layout.pdf",
		"doc/doc_spans.pdf",
		"doc/doc_content_list.json",
		"doc/doc_middle.json",
		"doc/images/fig1.png",
		"markdowns/doc.md",
	} {
		info, err := os.Stat(filepath.Join(outRoot, rel))
		if err != nil {
			t.Errorf("missing artifact %s: %v", rel, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", rel)
		}
	}

	// The collected markdown is a byte-identical copy.
	local, err := os.ReadFile(filepath.Join(outRoot, "doc", "doc.md"))
	if err != nil {
		t.Fatal(err)
	}
	collected, err := os.ReadFile(filepath.Join(outRoot, "markdowns", "doc.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(local, collected) {
		t.Error("collected markdown differs from per-document markdown")
	}

	// Image references point into the per-document images directory.
	if !bytes.Contains(local, []byte("](images/fig1.png)")) {
		t.Errorf("markdown should reference images/fig1.png, got: %s", local)
	}

	sidecar, err := metadata.Read(filepath.Join(outRoot, "doc"), "doc")
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	if sidecar.ParseMode != types.ModeOCR {
		t.Errorf("sidecar mode = %q, want %q", sidecar.ParseMode, types.ModeOCR)
	}
	if sidecar.Source != pdfPath {
		t.Errorf("sidecar source = %q, want %q", sidecar.Source, pdfPath)
	}
}

func TestProcessIsRerunnable(t *testing.T) {
	inDir := t.TempDir()
	outRoot := t.TempDir()
	pdfPath := writePDF(t, inDir, "doc.pdf", "%PDF text content")

	p := &fakePipeline{}
	task := types.Task{PDFPath: pdfPath, OutputRoot: outRoot}

	if res := Process(p, task); res.Failed() {
		t.Fatalf("first run: %v", res.Err)
	}
	if res := Process(p, task); res.Failed() {
		t.Fatalf("second run over existing outputs: %v", res.Err)
	}
}

func TestProcessFailureStaysInsideResult(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, inDir string) string
		wantMsg string
	}{
		{
			name: "missing input file",
			setup: func(t *testing.T, inDir string) string {
				return filepath.Join(inDir, "ghost.pdf")
			},
			wantMsg: "reading input",
		},
		{
			name: "classification failure",
			setup: func(t *testing.T, inDir string) string {
				return writePDF(t, inDir, "bad.pdf", "corrupt garbage")
			},
			wantMsg: "unreadable document structure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDir := t.TempDir()
			pdfPath := tt.setup(t, inDir)

			res := Process(&fakePipeline{}, types.Task{PDFPath: pdfPath, OutputRoot: t.TempDir()})
			if !res.Failed() {
				t.Fatal("expected failure result")
			}
			if got := res.Err.Error(); !bytes.Contains([]byte(got), []byte(tt.wantMsg)) {
				t.Errorf("diagnostic %q should contain %q", got, tt.wantMsg)
			}
		})
	}
}
