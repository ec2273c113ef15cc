// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"reflect"
	"testing"
	"time"

	"github.com/meshintel/docbatch/pkg/types"
)

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()

	want := Sidecar{
		Source:      "/data/pdfs/report.pdf",
		ParseMode:   types.ModeOCR,
		CompletedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Artifacts:   []string{"report.md", "report_layout.pdf"},
	}
	if err := Write(dir, "report", want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(dir, "report")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestReadMissingSidecar(t *testing.T) {
	if _, err := Read(t.TempDir(), "nope"); err == nil {
		t.Error("expected error for missing sidecar")
	}
}
