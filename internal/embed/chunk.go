package embed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jura-stack/jura/internal/model"
)

const maxChunks = 3
const chunkMaxLen = 500

// Chunk is one embeddable slice of a decision (spec §4.4 "Chunking").
type Chunk struct {
	ChunkID    string
	DecisionID string
	Text       string
}

var sectionHeaders = regexp.MustCompile(`(?m)^\s*(Sachverhalt|Erw[aä]gung(?:en)?|Dispositiv|Considérants?|Faits|Consid[ée]rant|Dispositif|Considerando|Fatti|Dispositivo)\s*:?\s*$`)

// BuildChunks implements spec §4.4's chunking rule: chunk 0 is the regeste
// (if ≥20 chars), then up to N=3 chunks total from full_text — split by
// recognized section headers if ≥2 are found, else by blank-line paragraphs,
// else positionally (start, middle, end). Every chunk is truncated to 500 chars.
func BuildChunks(d *model.Decision) []Chunk {
	var chunks []Chunk
	if len(d.Regeste) >= regesteMinLen {
		chunks = append(chunks, Chunk{
			ChunkID:    fmt.Sprintf("%s__chunk_%d", d.DecisionID, 0),
			DecisionID: d.DecisionID,
			Text:       truncate(d.Regeste, chunkMaxLen),
		})
	}
	if len(chunks) >= maxChunks || d.FullText == "" {
		return chunks
	}

	remaining := maxChunks - len(chunks)
	pieces := splitBySections(d.FullText)
	if len(pieces) < 2 {
		pieces = splitByParagraphs(d.FullText)
	}
	if len(pieces) < 2 {
		pieces = splitPositionally(d.FullText)
	}
	for i, p := range pieces {
		if i >= remaining {
			break
		}
		idx := len(chunks)
		chunks = append(chunks, Chunk{
			ChunkID:    fmt.Sprintf("%s__chunk_%d", d.DecisionID, idx),
			DecisionID: d.DecisionID,
			Text:       truncate(p, chunkMaxLen),
		})
	}
	return chunks
}

func splitBySections(fullText string) []string {
	locs := sectionHeaders.FindAllStringIndex(fullText, -1)
	if len(locs) < 2 {
		return nil
	}
	var out []string
	for i, loc := range locs {
		start := loc[1]
		end := len(fullText)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if s := strings.TrimSpace(fullText[start:end]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitByParagraphs(fullText string) []string {
	parts := strings.Split(fullText, "\n\n")
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitPositionally(fullText string) []string {
	n := len(fullText)
	if n == 0 {
		return nil
	}
	third := n / 3
	start := fullText[:min(n, chunkMaxLen)]
	mid := fullText[third : min(n, third+chunkMaxLen)]
	end := fullText[max(0, n-chunkMaxLen):]
	return []string{start, mid, end}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
