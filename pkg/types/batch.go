// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docbatch pipeline.
package types

// ParseMode selects the extraction strategy for a document, as decided by
// the analysis pipeline's classification step.
type ParseMode string

const (
	// ModeOCR runs the full OCR path for scanned or image-heavy documents.
	ModeOCR ParseMode = "ocr"

	// ModeText extracts embedded text directly without OCR.
	ModeText ParseMode = "txt"
)

// Task pairs one input PDF with the output root its artifacts belong under.
// A Task is created once per unprocessed input and consumed by exactly one
// worker.
type Task struct {
	// PDFPath is the filesystem path to the input document.
	PDFPath string

	// OutputRoot is the directory under which per-document output
	// directories and the markdown collection directory are created.
	OutputRoot string
}

// Result is the outcome of processing a single Task. Exactly one Result is
// produced per Task; either Err is nil and the file was fully processed, or
// Err carries the diagnostic for the failure.
type Result struct {
	// Name is the base name of the input file (e.g. "report.pdf"). This is
	// the key recorded in the ledger on success.
	Name string

	// Mode is the parse mode the classification step selected. Empty when
	// the task failed before classification.
	Mode ParseMode

	// Err is non-nil when processing failed. Worker failures never
	// propagate past the Result boundary.
	Err error
}

// Failed reports whether the task produced no usable output.
func (r Result) Failed() bool {
	return r.Err != nil
}
