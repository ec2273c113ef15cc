// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze defines the interface to the external document-analysis
// pipeline and the artifact set it produces for one document. All layout,
// OCR, and markdown-generation logic lives behind the Pipeline interface;
// this repository only moves its inputs and outputs around.
package analyze

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/meshintel/docbatch/internal/artifact"
	"github.com/meshintel/docbatch/pkg/types"
)

// Pipeline is the document-analysis collaborator. Classify inspects raw PDF
// bytes and decides between OCR and direct-text extraction; Analyze runs the
// full pipeline in the given mode and returns the complete artifact set.
type Pipeline interface {
	Classify(pdf []byte) (types.ParseMode, error)
	Analyze(pdf []byte, mode types.ParseMode) (*Document, error)
}

// Document holds the artifacts produced by analyzing one PDF. The dump and
// draw methods mirror the analysis library's result object: each writes one
// artifact, parameterized by a writer abstraction or a destination path.
type Document struct {
	// Markdown is the extracted document text. Image references use bare
	// image names; DumpMarkdown rewrites them against the image directory.
	Markdown []byte

	// Layout is a rendered PDF visualizing the detected layout blocks.
	Layout []byte

	// Spans is a rendered PDF visualizing the detected text spans.
	Spans []byte

	// ContentList is the structured content listing (JSON).
	ContentList []byte

	// MiddleJSON is the structured intermediate representation (JSON).
	MiddleJSON []byte

	// Images maps extracted image names to their bytes.
	Images map[string][]byte
}

// DumpMarkdown writes the markdown artifact as name through w, rewriting
// image references to point into imageDir.
func (d *Document) DumpMarkdown(w artifact.Writer, name, imageDir string) error {
	md := d.Markdown
	for img := range d.Images {
		md = bytes.ReplaceAll(md,
			[]byte("]("+img+")"),
			[]byte("]("+path.Join(imageDir, img)+")"))
	}
	if err := w.Write(name, md); err != nil {
		return fmt.Errorf("dumping markdown: %w", err)
	}
	return nil
}

// DumpContentList writes the content listing as name through w.
func (d *Document) DumpContentList(w artifact.Writer, name string) error {
	if err := w.Write(name, d.ContentList); err != nil {
		return fmt.Errorf("dumping content list: %w", err)
	}
	return nil
}

// DumpMiddleJSON writes the intermediate representation as name through w.
func (d *Document) DumpMiddleJSON(w artifact.Writer, name string) error {
	if err := w.Write(name, d.MiddleJSON); err != nil {
		return fmt.Errorf("dumping middle json: %w", err)
	}
	return nil
}

// DumpImages writes every extracted image through w in name order.
func (d *Document) DumpImages(w artifact.Writer) error {
	names := make([]string, 0, len(d.Images))
	for n := range d.Images {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if err := w.Write(n, d.Images[n]); err != nil {
			return fmt.Errorf("dumping image %s: %w", n, err)
		}
	}
	return nil
}

// DrawLayout writes the layout-debug rendering to dest.
func (d *Document) DrawLayout(dest string) error {
	return writeRendering(dest, d.Layout, "layout")
}

// DrawSpans writes the span-debug rendering to dest.
func (d *Document) DrawSpans(dest string) error {
	return writeRendering(dest, d.Spans, "spans")
}

func writeRendering(dest string, data []byte, kind string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s rendering: %w", kind, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing %s rendering %s: %w", kind, dest, err)
	}
	return nil
}
