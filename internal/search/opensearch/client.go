// Package opensearch is the optional lexical+vector search backend (spec
// §4.5, with its index schema drawn from
// original_source/search_stack/opensearch_schema.py), grounded on
// techjusticelab-Motion-Index's pkg/search/client.Client: connection setup,
// health/index-exists/create-index plumbing, and the buildRequestBody/
// parseResponse JSON helpers carried over verbatim in spirit.
package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	Host       string
	Port       int
	UseSSL     bool
	Username   string
	Password   string
	Index      string // decisions index name
	VectorDim  int
	Shards     int
	Replicas   int
	PipelineID string // search pipeline name for hybrid RRF queries
}

// Client wraps the opensearch-go client with the index/pipeline names this
// module needs.
type Client struct {
	client    *opensearch.Client
	index     string
	pipeline  string
	vectorDim int
	isHealthy bool
}

// NewClient connects to an OpenSearch cluster and verifies reachability.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("opensearch: host is required")
	}

	protocol := "http"
	if cfg.UseSSL {
		protocol = "https"
	}
	url := fmt.Sprintf("%s://%s:%d", protocol, cfg.Host, cfg.Port)

	osConfig := opensearch.Config{
		Addresses: []string{url},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.UseSSL},
		},
	}
	if cfg.Username != "" && cfg.Password != "" {
		osConfig.Username = cfg.Username
		osConfig.Password = cfg.Password
	}

	osClient, err := opensearch.NewClient(osConfig)
	if err != nil {
		return nil, fmt.Errorf("opensearch: create client: %w", err)
	}

	c := &Client{client: osClient, index: cfg.Index, pipeline: cfg.PipelineID, vectorDim: cfg.VectorDim}
	if err := c.ping(context.Background()); err != nil {
		return nil, fmt.Errorf("opensearch: connect: %w", err)
	}
	c.isHealthy = true
	return c, nil
}

func (c *Client) ping(ctx context.Context) error {
	req := opensearchapi.InfoRequest{}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping failed with status: %s", res.Status())
	}
	return nil
}

// Healthy reports cluster health ("green" or "yellow" counts as healthy).
func (c *Client) Healthy(ctx context.Context) error {
	req := opensearchapi.ClusterHealthRequest{Timeout: 10 * time.Second}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		c.isHealthy = false
		return fmt.Errorf("opensearch: health check: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		c.isHealthy = false
		return fmt.Errorf("opensearch: health check failed with status: %s", res.Status())
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return fmt.Errorf("opensearch: parse health response: %w", err)
	}
	c.isHealthy = health.Status == "green" || health.Status == "yellow"
	if !c.isHealthy {
		return fmt.Errorf("opensearch: cluster status %q", health.Status)
	}
	return nil
}

// EnsureIndex creates the decisions index and its RRF search pipeline if
// they don't already exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	exists, err := c.indexExists(ctx)
	if err != nil {
		return fmt.Errorf("opensearch: check index exists: %w", err)
	}
	if !exists {
		req := opensearchapi.IndicesCreateRequest{
			Index: c.index,
			Body:  jsonReader(DecisionsIndexMapping(c.vectorDim, 1, 0)),
		}
		res, err := req.Do(ctx, c.client)
		if err != nil {
			return fmt.Errorf("opensearch: create index: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("opensearch: create index failed with status: %s", res.Status())
		}
	}

	if c.pipeline == "" {
		return nil
	}
	body := jsonReader(SearchPipelineBody(60, 300))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, "/_search/pipeline/"+c.pipeline, body)
	if err != nil {
		return fmt.Errorf("opensearch: build pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.client.Perform(req)
	if err != nil {
		return fmt.Errorf("opensearch: create search pipeline: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("opensearch: create search pipeline failed with status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{c.index}}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
}

// Close is a no-op: the opensearch-go client holds no connections to release.
func (c *Client) Close() error {
	c.isHealthy = false
	return nil
}

func jsonReader(data any) *strings.Reader {
	b, err := json.Marshal(data)
	if err != nil {
		return strings.NewReader("{}")
	}
	return strings.NewReader(string(b))
}
