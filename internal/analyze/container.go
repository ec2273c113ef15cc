// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meshintel/docbatch/internal/container"
	"github.com/meshintel/docbatch/pkg/types"
)

// DefaultImage is the analysis container image used when none is configured.
const DefaultImage = "mineru:latest"

// ContainerPipeline runs the analysis image through a container runtime
// (docker or podman) injected at construction time. The image reads the PDF
// on stdin; `classify` prints the parse mode, `analyze` prints the artifact
// bundle as JSON with binary artifacts base64-encoded.
type ContainerPipeline struct {
	runtime container.Runtime
	image   string
}

// NewContainerPipeline creates a pipeline backed by the given runtime and
// image. It verifies that the image exists locally before returning.
func NewContainerPipeline(rt container.Runtime, image string) (*ContainerPipeline, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("analysis image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerPipeline{runtime: rt, image: image}, nil
}

// Classify pipes the PDF through the image's classify command and parses
// the reported parse mode.
func (p *ContainerPipeline) Classify(pdf []byte) (types.ParseMode, error) {
	var out bytes.Buffer
	if err := p.runtime.Run(p.image, []string{"classify"}, bytes.NewReader(pdf), &out); err != nil {
		return "", fmt.Errorf("classifying document: %w", err)
	}

	mode := types.ParseMode(strings.TrimSpace(out.String()))
	switch mode {
	case types.ModeOCR, types.ModeText:
		return mode, nil
	}
	return "", fmt.Errorf("unrecognized classification %q from %s", out.String(), p.image)
}

// bundle is the wire form of the artifact set emitted by the analyze command.
type bundle struct {
	Markdown    string            `json:"markdown"`
	LayoutPDF   string            `json:"layout_pdf"` // base64
	SpansPDF    string            `json:"spans_pdf"`  // base64
	ContentList json.RawMessage   `json:"content_list"`
	MiddleJSON  json.RawMessage   `json:"middle_json"`
	Images      map[string]string `json:"images"` // name -> base64
}

// Analyze pipes the PDF through the image's analyze command in the given
// mode and decodes the resulting artifact bundle.
func (p *ContainerPipeline) Analyze(pdf []byte, mode types.ParseMode) (*Document, error) {
	args := []string{"analyze", "--mode", string(mode)}

	var out bytes.Buffer
	if err := p.runtime.Run(p.image, args, bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("analyzing document in %s mode: %w", mode, err)
	}

	var b bundle
	if err := json.Unmarshal(out.Bytes(), &b); err != nil {
		return nil, fmt.Errorf("parsing artifact bundle from %s: %w", p.image, err)
	}
	if b.Markdown == "" {
		return nil, fmt.Errorf("%s produced empty markdown", p.image)
	}

	layout, err := base64.StdEncoding.DecodeString(b.LayoutPDF)
	if err != nil {
		return nil, fmt.Errorf("decoding layout rendering: %w", err)
	}
	spans, err := base64.StdEncoding.DecodeString(b.SpansPDF)
	if err != nil {
		return nil, fmt.Errorf("decoding spans rendering: %w", err)
	}

	images := make(map[string][]byte, len(b.Images))
	for name, enc := range b.Images {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("decoding image %s: %w", name, err)
		}
		images[name] = data
	}

	return &Document{
		Markdown:    []byte(b.Markdown),
		Layout:      layout,
		Spans:       spans,
		ContentList: b.ContentList,
		MiddleJSON:  b.MiddleJSON,
		Images:      images,
	}, nil
}
