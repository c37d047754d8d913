package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/sandevgo/polychat/internal/core"
	"github.com/sandevgo/polychat/pkg/log"
)

// Retriever answers similarity queries over the persistent chunk index
// with a brute-force cosine scan. Reads are side-effect-free and may
// interleave with concurrent ingestion writes; chunks indexed while a
// query runs become visible on the next call.
type Retriever struct {
	embedder core.Embedder
	index    core.ChunkIndex
}

func New(embedder core.Embedder, index core.ChunkIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Query returns up to k chunks, most similar first. An empty index gives
// an empty result, not an error.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]core.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	chunks, vectors, err := r.index.AllVectors(ctx)
	if err != nil {
		return nil, &core.RetrievalError{Err: err}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	query, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &core.RetrievalError{Err: err}
	}

	type scored struct {
		chunk core.Chunk
		score float64
	}
	results := make([]scored, 0, len(chunks))
	for i := range chunks {
		results = append(results, scored{
			chunk: chunks[i],
			score: cosine(query, vectors[i]),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	top := make([]core.Chunk, 0, k)
	for i := 0; i < k; i++ {
		top = append(top, results[i].chunk)
	}

	log.FromCtx(ctx).Debug().Int("indexed", len(chunks)).Int("returned", len(top)).Msg("retrieved chunks")
	return top, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
