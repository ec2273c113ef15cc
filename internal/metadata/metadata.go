// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata reads and writes per-document YAML sidecars describing a
// completed analysis.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/docbatch/pkg/types"
)

// Sidecar records how a document was processed. It is written next to the
// document's artifacts as [stem].yaml.
type Sidecar struct {
	// Source is the path of the input PDF as seen by the run.
	Source string `yaml:"source"`

	// ParseMode is the extraction strategy the classifier selected.
	ParseMode types.ParseMode `yaml:"parse_mode"`

	// CompletedAt is when processing finished, UTC.
	CompletedAt time.Time `yaml:"completed_at"`

	// Artifacts lists the artifact filenames written for this document.
	Artifacts []string `yaml:"artifacts"`
}

// Write stores the sidecar as dir/[stem].yaml.
func Write(dir, stem string, s Sidecar) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling sidecar: %w", err)
	}
	path := filepath.Join(dir, stem+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing sidecar %s: %w", path, err)
	}
	return nil
}

// Read loads the sidecar at dir/[stem].yaml.
func Read(dir, stem string) (*Sidecar, error) {
	path := filepath.Join(dir, stem+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sidecar %s: %w", path, err)
	}
	return &s, nil
}
