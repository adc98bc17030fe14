// Package pdftext extracts plain text from PDF bytes behind a pluggable
// backend (spec §4.2). Backends are grounded on the pack's PDF libraries:
// ledongthuc/pdf (bbiangul-go-reason, techjusticelab-Motion-Index) as the
// default, gen2brain/go-fitz (techjusticelab-Motion-Index) for scanned or
// structurally complex decisions.
package pdftext

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// MinLength is the minimum extracted-text length below which the result is
// treated as a ParseError rather than a usable decision body (spec §7).
const MinLength = 20

// Extractor converts PDF bytes to text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// LedongthucExtractor is the default backend.
type LedongthucExtractor struct{}

func (LedongthucExtractor) Extract(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdftext: open reader: %w", err)
	}

	var buf bytes.Buffer
	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdftext: extract plain text: %w", err)
	}
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("pdftext: read plain text: %w", err)
	}

	text := buf.String()
	if len(text) < MinLength {
		return "", fmt.Errorf("pdftext: extracted text too short (%d bytes, min %d)", len(text), MinLength)
	}
	return text, nil
}
