// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives PDF files through the analysis pipeline: a worker
// produces the full artifact set for one document, and the runner schedules
// unprocessed inputs across a fixed-size worker pool while keeping the
// processed-files ledger durable after every success.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meshintel/docbatch/internal/analyze"
	"github.com/meshintel/docbatch/internal/artifact"
	"github.com/meshintel/docbatch/internal/metadata"
	"github.com/meshintel/docbatch/pkg/types"
)

const (
	// imagesDirName is the per-document subdirectory for extracted images.
	imagesDirName = "images"

	// collectDirName is the shared directory collecting every markdown result.
	collectDirName = "markdowns"
)

// Process runs one task through the analysis pipeline and writes the full
// artifact set under the task's output root:
//
//	[root]/[stem]/[stem].md, _layout.pdf, _spans.pdf,
//	_content_list.json, _middle.json, [stem].yaml, images/
//	[root]/markdowns/[stem].md (copy)
//
// Every failure is captured in the returned Result; nothing escapes the
// worker boundary, so one bad input can never abort a batch. Re-running a
// task overwrites its previous outputs.
func Process(p analyze.Pipeline, task types.Task) types.Result {
	name := filepath.Base(task.PDFPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	docDir := filepath.Join(task.OutputRoot, stem)
	imagesDir := filepath.Join(docDir, imagesDirName)
	collectDir := filepath.Join(task.OutputRoot, collectDirName)

	for _, dir := range []string{docDir, imagesDir, collectDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failure(name, fmt.Errorf("creating directory %s: %w", dir, err))
		}
	}

	pdf, err := os.ReadFile(task.PDFPath)
	if err != nil {
		return failure(name, fmt.Errorf("reading input: %w", err))
	}

	mode, err := p.Classify(pdf)
	if err != nil {
		return failure(name, err)
	}

	doc, err := p.Analyze(pdf, mode)
	if err != nil {
		return failure(name, err)
	}

	docWriter := artifact.NewDirWriter(docDir)
	imageWriter := artifact.NewDirWriter(imagesDir)

	if err := doc.DumpImages(imageWriter); err != nil {
		return failure(name, err)
	}
	if err := doc.DrawLayout(filepath.Join(docDir, stem+"_layout.pdf")); err != nil {
		return failure(name, err)
	}
	if err := doc.DrawSpans(filepath.Join(docDir, stem+"_spans.pdf")); err != nil {
		return failure(name, err)
	}

	mdName := stem + ".md"
	if err := doc.DumpMarkdown(docWriter, mdName, imagesDirName); err != nil {
		return failure(name, err)
	}
	if err := copyFile(filepath.Join(docDir, mdName), filepath.Join(collectDir, mdName)); err != nil {
		return failure(name, fmt.Errorf("collecting markdown: %w", err))
	}

	if err := doc.DumpContentList(docWriter, stem+"_content_list.json"); err != nil {
		return failure(name, err)
	}
	if err := doc.DumpMiddleJSON(docWriter, stem+"_middle.json"); err != nil {
		return failure(name, err)
	}

	sidecar := metadata.Sidecar{
		Source:      task.PDFPath,
		ParseMode:   mode,
		CompletedAt: time.Now().UTC(),
		Artifacts: []string{
			mdName,
			stem + "_layout.pdf",
			stem + "_spans.pdf",
			stem + "_content_list.json",
			stem + "_middle.json",
		},
	}
	if err := metadata.Write(docDir, stem, sidecar); err != nil {
		return failure(name, err)
	}

	return types.Result{Name: name, Mode: mode}
}

func failure(name string, err error) types.Result {
	return types.Result{Name: name, Err: err}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
