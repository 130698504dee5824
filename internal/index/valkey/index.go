// Package valkey serves the BNCC index from a Redis/Valkey FT index via KNN with TAG pre-filters.
package valkey

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bnccrag/internal/db"
	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/index"
)

const (
	fieldContent = "content"
	fieldVector  = "vector"
)

var returnFields = []string{
	fieldContent,
	domain.FieldCode,
	domain.FieldYear,
	domain.FieldStage,
	domain.FieldComponent,
	"__vector_score",
}

// Store is the subset of db.Store the index needs.
type Store interface {
	db.Searcher
	db.IndexInspector
}

// Compile-time check: Index implements index.Index.
var _ index.Index = (*Index)(nil)

// Index queries an FT index whose hashes hold content, metadata tags and a vector field.
type Index struct {
	store    Store
	embedder domain.Embedder
	name     string
}

// New creates an index over an existing FT index.
func New(store Store, embedder domain.Embedder, name string) *Index {
	return &Index{store: store, embedder: embedder, name: name}
}

// Loader checks that the FT index exists before handing it out.
func Loader(store Store, embedder domain.Embedder, name string) index.Loader {
	return func(ctx context.Context) (index.Index, error) {
		exists, err := store.IndexExists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check index %s: %w", name, err)
		}
		if !exists {
			return nil, fmt.Errorf("index %s: %w", name, db.ErrIndexNotFound)
		}
		return New(store, embedder, name), nil
	}
}

// Search embeds query and runs FT.SEARCH KNN with the filter as TAG pre-filters.
func (i *Index) Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	emb, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	res, err := i.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    i.name,
		VectorField:  fieldVector,
		Filters:      filter.Conditions(),
		Vector:       emb.Embedding,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	out := make([]domain.SimilarityResult, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, domain.SimilarityResult{
			Document: domain.Document{
				Content: e.Fields[fieldContent],
				Metadata: domain.Metadata{
					Code:      e.Fields[domain.FieldCode],
					Year:      e.Fields[domain.FieldYear],
					Stage:     e.Fields[domain.FieldStage],
					Component: e.Fields[domain.FieldComponent],
				},
			},
			Score: e.Score,
		})
	}
	return out, nil
}

// Count returns the number of documents in the FT index.
func (i *Index) Count(ctx context.Context) (int, error) {
	n, err := i.store.IndexDocCount(ctx, i.name)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
