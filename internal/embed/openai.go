package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBody = 10 * 1024 * 1024

const openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// OpenAIProvider generates embeddings via the OpenAI API, grounded on the
// teacher's OpenAIProvider (internal/service/embedding/embedding.go).
type OpenAIProvider struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	dimensions int
}

// NewOpenAIProvider builds a provider that sends the given dimensions with
// every request; dimensions <= 0 defaults to 1024 (spec §4.4's default vector
// size, e.g. text-embedding-3-small with the dimensions parameter).
func NewOpenAIProvider(apiKey, model string, dimensions int) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embed: OpenAI API key is required")
	}
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      model,
		url:        openAIEmbeddingsURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dimensions: dimensions,
	}, nil
}

// NewGeminiProvider targets Google's OpenAI-compatible endpoint (bbiangul-go-reason's
// llm.NewGemini: same request/response shape, different base URL, no /v1 prefix).
func NewGeminiProvider(apiKey, model string, dimensions int) (*OpenAIProvider, error) {
	p, err := NewOpenAIProvider(apiKey, model, dimensions)
	if err != nil {
		return nil, err
	}
	p.url = "https://generativelanguage.googleapis.com/v1beta/openai/embeddings"
	return p, nil
}

func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

type openAIRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// EmbedBatch sends every text in one API call, as given; no token-count
// truncation happens here.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(openAIRequest{Input: texts, Model: p.model, Dimensions: p.dimensions})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("embed: read response: %w", err)
	}

	var result openAIResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &result) == nil && result.Error != nil {
			return nil, fmt.Errorf("embed: openai error (HTTP %d): %s: %s", resp.StatusCode, result.Error.Type, result.Error.Message)
		}
		return nil, fmt.Errorf("embed: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("embed: unmarshal response: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embed: expected %d embeddings but got %d", len(texts), len(result.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embed: invalid index %d in response", d.Index)
		}
		normalizeL2(d.Embedding)
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
