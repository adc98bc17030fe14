package pdftext

import (
	"fmt"
	"os"

	"github.com/gen2brain/go-fitz"
)

// FitzExtractor is the alternate backend for scanned or structurally complex
// decisions where ledongthuc/pdf's text layer extraction comes back empty or
// too short (techjusticelab-Motion-Index uses go-fitz for exactly this case).
// go-fitz wraps MuPDF via cgo and needs a temp file, unlike the pure
// byte-stream ledongthuc/pdf path.
type FitzExtractor struct{}

func (FitzExtractor) Extract(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "jura-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("pdftext: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("pdftext: write temp file: %w", err)
	}

	doc, err := fitz.New(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("pdftext: open document: %w", err)
	}
	defer doc.Close()

	var text string
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		text += pageText
	}
	if len(text) < MinLength {
		return "", fmt.Errorf("pdftext: extracted text too short (%d bytes, min %d)", len(text), MinLength)
	}
	return text, nil
}

// Fallback tries the default backend first, then FitzExtractor if the
// default produced too little text (e.g. a scanned decision with no text layer).
func Fallback(data []byte) (string, error) {
	text, err := (LedongthucExtractor{}).Extract(data)
	if err == nil {
		return text, nil
	}
	return (FitzExtractor{}).Extract(data)
}
