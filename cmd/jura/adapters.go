package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jura-stack/jura/internal/embed"
	"github.com/jura-stack/jura/internal/model"
	"github.com/jura-stack/jura/internal/search"
	"github.com/jura-stack/jura/internal/search/opensearch"
	"github.com/jura-stack/jura/internal/vectorstore"
	"github.com/jura-stack/jura/internal/vectorstore/qdrant"
)

// vectorstoreSearcher adapts *vectorstore.Index to search.VectorSearcher;
// the two Neighbor types are structurally identical, but each package
// defines its own so internal/search never needs to import a concrete
// backend.
type vectorstoreSearcher struct{ idx *vectorstore.Index }

func (v *vectorstoreSearcher) Search(ctx context.Context, language string, query []float32, k int) ([]search.VectorNeighbor, error) {
	hits, err := v.idx.Search(ctx, language, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]search.VectorNeighbor, len(hits))
	for i, h := range hits {
		out[i] = search.VectorNeighbor{DecisionID: h.DecisionID, Distance: h.Distance}
	}
	return out, nil
}

// qdrantSearcher adapts *qdrant.Index to search.VectorSearcher.
type qdrantSearcher struct{ idx *qdrant.Index }

func (q *qdrantSearcher) Search(ctx context.Context, language string, query []float32, k int) ([]search.VectorNeighbor, error) {
	hits, err := q.idx.Search(ctx, language, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]search.VectorNeighbor, len(hits))
	for i, h := range hits {
		out[i] = search.VectorNeighbor{DecisionID: h.DecisionID, Distance: h.Distance}
	}
	return out, nil
}

// opensearchSearcher adapts *opensearch.Client to server.Searcher (and
// mcp.Searcher, which has the identical method set): opensearch.Client.Search
// takes a pre-computed query vector, so this embeds the query text itself
// before delegating, the way internal/search.Engine embeds it for its own
// vector leg.
type opensearchSearcher struct {
	client   *opensearch.Client
	provider embed.Provider
}

func (o *opensearchSearcher) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.SearchResult, error) {
	var queryVector []float32
	if o.provider != nil && strings.TrimSpace(query) != "" {
		vecs, err := o.provider.EmbedBatch(ctx, []string{query})
		if err == nil && len(vecs) > 0 {
			queryVector = vecs[0]
		}
	}
	return o.client.Search(ctx, query, filters, queryVector, limit)
}

// newOpenSearchClient builds an opensearch.Client from cfg.OpenSearchURL,
// splitting it into the host/port/useSSL triple opensearch.Config expects
// (grounded on qdrant.parseURL's equivalent split for the qdrant backend).
// cfg.OpenSearchAPIKeyFile, if set, is read and sent as the basic-auth
// password; OpenSearch API keys are commonly passed this way when no
// separate identity provider is in front of the cluster.
func newOpenSearchClient(rawURL, index string, vectorDim int, apiKeyFile string) (*opensearch.Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("opensearch: parse url %q: %w", rawURL, err)
	}
	host := u.Hostname()
	useSSL := u.Scheme == "https"
	port := 9200
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("opensearch: invalid port in %q: %w", rawURL, err)
		}
	} else if useSSL {
		port = 443
	}

	cfg := opensearch.Config{
		Host:      host,
		Port:      port,
		UseSSL:    useSSL,
		Index:     index,
		VectorDim: vectorDim,
		Shards:    1,
		Replicas:  0,
	}
	if apiKeyFile != "" {
		key, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("opensearch: read api key file: %w", err)
		}
		cfg.Username = "opensearch"
		cfg.Password = strings.TrimSpace(string(key))
	}
	return opensearch.NewClient(cfg)
}
