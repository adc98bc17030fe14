package embed

import "context"

// NoopProvider returns no vectors, for CLI subcommands run without an
// embedding backend configured. Grounded on the teacher's NoopProvider.
type NoopProvider struct {
	dims int
}

func NewNoopProvider(dims int) *NoopProvider {
	return &NoopProvider{dims: dims}
}

func (p *NoopProvider) Dimensions() int { return p.dims }

func (p *NoopProvider) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNoProvider
}
