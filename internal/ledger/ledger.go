// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the set of input files that have been processed
// successfully. The ledger is a JSON array of filenames, sorted ascending
// and pretty-printed, so repeated runs produce stable diffs.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPath is the ledger location relative to the working directory.
const DefaultPath = "processed_files.json"

// Set is an in-memory collection of processed filenames. The zero value is
// not usable; construct with NewSet or Load.
type Set struct {
	names map[string]struct{}
}

// NewSet creates a Set containing the given names. Duplicates collapse.
func NewSet(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Add inserts a name into the set.
func (s *Set) Add(name string) {
	s.names[name] = struct{}{}
}

// Remove deletes a name from the set and reports whether it was present.
func (s *Set) Remove(name string) bool {
	_, ok := s.names[name]
	delete(s.names, name)
	return ok
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in the set.
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns the members sorted ascending.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Load reads the ledger at path. A missing file yields an empty set; an
// unreadable or unparseable file is an error, because a corrupt ledger
// voids every skip decision the caller would make from it.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", path, err)
	}
	return NewSet(names...), nil
}

// Save writes the set to path as a sorted, pretty-printed JSON array,
// replacing any existing file. The write goes through a temp file and a
// rename so a crash mid-save never leaves a truncated ledger behind.
func Save(path string, s *Set) error {
	data, err := json.MarshalIndent(s.Names(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp ledger file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing ledger: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp ledger file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp ledger file: %w", err)
	}
	return nil
}
