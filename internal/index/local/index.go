// Package local serves a parquet index snapshot from memory with brute-force cosine search.
package local

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/index"
)

// DefaultFetchK is how many nearest candidates are considered before a metadata filter is applied.
const DefaultFetchK = 20

// Compile-time check: Index implements index.Index.
var _ index.Index = (*Index)(nil)

type entry struct {
	doc  domain.Document
	vec  []float32
	norm float64
}

// Index is an immutable in-memory snapshot. Safe for concurrent readers.
type Index struct {
	embedder domain.Embedder
	entries  []entry
	dims     int
	fetchK   int
}

// Option configures an Index.
type Option func(*Index)

// WithFetchK sets the over-fetch window for filtered searches.
func WithFetchK(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.fetchK = n
		}
	}
}

// New builds an index from snapshot rows. All embeddings must share one dimension.
func New(rows []Record, embedder domain.Embedder, opts ...Option) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	idx := &Index{embedder: embedder, fetchK: DefaultFetchK, entries: make([]entry, 0, len(rows))}
	for _, o := range opts {
		o(idx)
	}

	for i, r := range rows {
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("row %d: empty embedding", i)
		}
		if idx.dims == 0 {
			idx.dims = len(r.Embedding)
		} else if len(r.Embedding) != idx.dims {
			return nil, fmt.Errorf("row %d: %w: got %d, want %d", i, domain.ErrVectorDimMismatch, len(r.Embedding), idx.dims)
		}
		idx.entries = append(idx.entries, entry{doc: r.Document(), vec: r.Embedding, norm: norm(r.Embedding)})
	}
	return idx, nil
}

// Open reads a snapshot from path and builds an index over it.
func Open(path string, embedder domain.Embedder, opts ...Option) (*Index, error) {
	rows, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return New(rows, embedder, opts...)
}

// Loader adapts Open to index.Loader.
func Loader(path string, embedder domain.Embedder, opts ...Option) index.Loader {
	return func(_ context.Context) (index.Index, error) {
		return Open(path, embedder, opts...)
	}
}

// Count returns the number of indexed documents.
func (i *Index) Count(_ context.Context) (int, error) {
	return len(i.entries), nil
}

// Dims returns the embedding dimension (0 for an empty index).
func (i *Index) Dims() int { return i.dims }

// Search embeds query and ranks documents by cosine similarity.
// With a filter, only the fetchK nearest candidates are matched against it.
func (i *Index) Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error) {
	if topK <= 0 || len(i.entries) == 0 {
		return nil, nil
	}

	emb, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(emb.Embedding) != i.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(emb.Embedding), i.dims)
	}

	qNorm := norm(emb.Embedding)
	ranked := make([]domain.SimilarityResult, len(i.entries))
	for n, e := range i.entries {
		ranked[n] = domain.SimilarityResult{Document: e.doc, Score: cosine(emb.Embedding, qNorm, e.vec, e.norm)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })

	if filter.IsEmpty() {
		return ranked[:min(topK, len(ranked))], nil
	}

	window := ranked[:min(max(i.fetchK, topK), len(ranked))]
	out := make([]domain.SimilarityResult, 0, topK)
	for _, r := range window {
		if !filter.Matches(r.Document.Metadata) {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
	}
	return dot / (aNorm * bNorm)
}
