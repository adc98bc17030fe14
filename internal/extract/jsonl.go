package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jura-stack/jura/internal/model"
)

// JSONLSink appends canonical Decision records to output/decisions/{court}.jsonl
// (spec §6). One JSON object per line, UTF-8.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewJSONLSink opens (creating if needed) the append-only log for a court.
func NewJSONLSink(outputDir, courtCode string) (*JSONLSink, error) {
	dir := filepath.Join(outputDir, "decisions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("extract: create decisions dir: %w", err)
	}
	path := filepath.Join(dir, courtCode+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("extract: open %s: %w", path, err)
	}
	return &JSONLSink{file: f, w: bufio.NewWriter(f)}, nil
}

func (s *JSONLSink) Write(d *model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("extract: marshal decision %s: %w", d.DecisionID, err)
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// ReadJSONL reads a per-source append-only log, tolerating blank lines and
// logging-but-skipping malformed lines (spec §6 "canonical record file
// format"). Returns every successfully parsed Decision.
func ReadJSONL(path string, onBadLine func(line string, err error)) ([]model.Decision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer f.Close()

	var out []model.Decision
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(trimSpace(line)) == 0 {
			continue
		}
		var d model.Decision
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			if onBadLine != nil {
				onBadLine(line, err)
			}
			continue
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("extract: scan %s: %w", path, err)
	}
	return out, nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
