package embed

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jura-stack/jura/internal/model"
)

func TestSelectText_PrefersRegeste(t *testing.T) {
	d := &model.Decision{Regeste: "this regeste is long enough to qualify", FullText: "full text body"}
	text, ok := SelectText(d)
	require.True(t, ok)
	require.Equal(t, d.Regeste, text)
}

func TestSelectText_FallsBackToFullTextPrefix(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	d := &model.Decision{Regeste: "short", FullText: string(long)}
	text, ok := SelectText(d)
	require.True(t, ok)
	require.Len(t, text, fullTextSampleLen)
}

func TestSelectText_SkipsWhenBothEmpty(t *testing.T) {
	d := &model.Decision{}
	_, ok := SelectText(d)
	require.False(t, ok)
}

func TestBuildChunks_RegesteIsFirstChunk(t *testing.T) {
	d := &model.Decision{
		DecisionID: "bger_1A_1_2020",
		Regeste:    "Art. 8 BV garantiert die Rechtsgleichheit vor dem Gesetz.",
		FullText:   "Sachverhalt\nA. Sachverhalt text.\n\nErwägungen\n1. Erwägung text.\n\nDispositiv\nDie Beschwerde wird abgewiesen.",
	}
	chunks := BuildChunks(d)
	require.NotEmpty(t, chunks)
	require.Equal(t, "bger_1A_1_2020__chunk_0", chunks[0].ChunkID)
	require.Equal(t, d.Regeste, chunks[0].Text)
	require.LessOrEqual(t, len(chunks), maxChunks)
}

func TestBuildChunks_SplitsBySectionHeaders(t *testing.T) {
	d := &model.Decision{
		DecisionID: "bger_1A_2_2020",
		FullText:   "Sachverhalt\nfacts here.\n\nErwägungen\nreasoning here.\n\nDispositiv\nruling here.",
	}
	chunks := BuildChunks(d)
	require.Len(t, chunks, 3)
	require.Equal(t, "facts here.", chunks[0].Text)
	require.Equal(t, "reasoning here.", chunks[1].Text)
	require.Equal(t, "ruling here.", chunks[2].Text)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c.Text), chunkMaxLen)
	}
}

func TestBuildChunks_CapsAtThree(t *testing.T) {
	d := &model.Decision{
		DecisionID: "bger_1A_3_2020",
		Regeste:    "this regeste is long enough to qualify as chunk zero here",
		FullText:   "para one\n\npara two\n\npara three\n\npara four\n\npara five",
	}
	chunks := BuildChunks(d)
	require.LessOrEqual(t, len(chunks), maxChunks)
}

func TestShardIndex_Deterministic(t *testing.T) {
	a := ShardIndex("bger_1A_1_2020", 4)
	b := ShardIndex("bger_1A_1_2020", 4)
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, 0)
	require.Less(t, a, 4)
}

func TestShardIndex_SingleShardAlwaysZero(t *testing.T) {
	require.Equal(t, 0, ShardIndex("anything", 1))
}

type fakeProvider struct{ dims int }

func (f *fakeProvider) Dimensions() int { return f.dims }
func (f *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dims)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

type collectingWriter struct{ got []Vectorized }

func (w *collectingWriter) WriteDecision(_ context.Context, v Vectorized) error {
	w.got = append(w.got, v)
	return nil
}

func TestBuild_SkipsDecisionsWithNoUsableText(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	decisions := []*model.Decision{
		{DecisionID: "a", Language: "de", Regeste: "this regeste is long enough to qualify"},
		{DecisionID: "b", Language: "de"},
	}
	w := &collectingWriter{}
	n, err := Build(context.Background(), &fakeProvider{dims: 4}, decisions, w, BuildConfig{ShardIndex: -1}, logger)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, w.got, 1)
	require.Equal(t, "a", w.got[0].DecisionID)
}

func TestBuildSharded_PartitionsAcrossWriters(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	var decisions []*model.Decision
	for i := range 20 {
		decisions = append(decisions, &model.Decision{
			DecisionID: "bger_" + string(rune('A'+i)),
			Language:   "de",
			Regeste:    "this regeste is long enough to qualify for shard test",
		})
	}
	writers := []Writer{&collectingWriter{}, &collectingWriter{}, &collectingWriter{}}
	counts, err := BuildSharded(context.Background(), &fakeProvider{dims: 4}, decisions, writers, BuildConfig{}, logger)
	require.NoError(t, err)
	total := 0
	for _, c := range counts {
		total += c
	}
	require.Equal(t, len(decisions), total)
}
