// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact provides the output-directory writer abstraction the
// analysis document dumps its artifacts through.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer stores one named artifact. Document dump methods are parameterized
// by a Writer so tests can capture output without touching the filesystem.
type Writer interface {
	Write(name string, data []byte) error
}

// DirWriter writes artifacts as files under a fixed directory, creating the
// directory on first use.
type DirWriter struct {
	dir string
}

// NewDirWriter returns a DirWriter rooted at dir.
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{dir: dir}
}

// Dir returns the directory this writer stores artifacts under.
func (w *DirWriter) Dir() string {
	return w.dir
}

// Write stores data as dir/name, overwriting any existing file.
func (w *DirWriter) Write(name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact directory %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}
