// Package index defines the vector index boundary and the process-wide handle over it.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/logger"
)

// Index is a read-only nearest-neighbor index over BNCC documents.
type Index interface {
	// Search returns at most topK results ordered by score descending.
	Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error)
	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int, error)
}

// Loader opens a backend. Called once per process.
type Loader func(ctx context.Context) (Index, error)

// Handle is created once at startup and read-only afterwards.
// A handle whose load failed stays unavailable for the process lifetime.
type Handle struct {
	name string
	idx  Index
	err  error
}

// Compile-time check: Handle implements Index.
var _ Index = (*Handle)(nil)

// Load invokes loader and never fails: a load error yields an unavailable handle.
func Load(ctx context.Context, name string, loader Loader, log *zap.Logger) *Handle {
	idx, err := loader(ctx)
	if err != nil {
		log.Error("index load failed",
			logger.Event("rag_db_load_failed"),
			zap.String("index", name),
			zap.Error(err),
		)
		return &Handle{name: name, err: err}
	}
	if idx == nil {
		err = fmt.Errorf("loader returned no index")
		log.Error("index load failed",
			logger.Event("rag_db_load_failed"),
			zap.String("index", name),
			zap.Error(err),
		)
		return &Handle{name: name, err: err}
	}

	fields := []zap.Field{logger.Event("rag_db_loaded"), zap.String("index", name)}
	if n, cErr := idx.Count(ctx); cErr == nil {
		fields = append(fields, zap.Int("documents", n))
	}
	log.Info("index loaded", fields...)
	return &Handle{name: name, idx: idx}
}

// NewHandle wraps an already opened index.
func NewHandle(name string, idx Index) *Handle {
	return &Handle{name: name, idx: idx}
}

// Unavailable returns a handle that reports err on every call.
func Unavailable(name string, err error) *Handle {
	return &Handle{name: name, err: err}
}

// Name returns the handle's label (path or FT index name).
func (h *Handle) Name() string { return h.name }

// Loaded reports whether the index is usable.
func (h *Handle) Loaded() bool { return h != nil && h.idx != nil }

// Err returns the load error, if any.
func (h *Handle) Err() error {
	if h == nil {
		return domain.ErrIndexUnavailable
	}
	return h.err
}

// Search delegates to the loaded index or returns ErrIndexUnavailable.
func (h *Handle) Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error) {
	if !h.Loaded() {
		return nil, h.unavailable()
	}
	return h.idx.Search(ctx, query, topK, filter) //nolint:wrapcheck // transparent handle
}

// Count delegates to the loaded index or returns ErrIndexUnavailable.
func (h *Handle) Count(ctx context.Context) (int, error) {
	if !h.Loaded() {
		return 0, h.unavailable()
	}
	return h.idx.Count(ctx) //nolint:wrapcheck // transparent handle
}

func (h *Handle) unavailable() error {
	if err := h.Err(); err != nil && err != domain.ErrIndexUnavailable {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return domain.ErrIndexUnavailable
}
