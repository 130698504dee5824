package local

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

// Record is one row of a persisted BNCC index snapshot.
type Record struct {
	Content   string    `parquet:"content"`
	Code      string    `parquet:"codigo"`
	Year      string    `parquet:"ano"`
	Stage     string    `parquet:"etapa"`
	Component string    `parquet:"componente"`
	Embedding []float32 `parquet:"embedding,list"`
}

// Document converts the row to its domain form.
func (r Record) Document() domain.Document {
	return domain.Document{
		Content: r.Content,
		Metadata: domain.Metadata{
			Code:      r.Code,
			Year:      r.Year,
			Stage:     r.Stage,
			Component: r.Component,
		},
	}
}

// ReadSnapshot reads every row of a parquet snapshot.
func ReadSnapshot(path string) ([]Record, error) {
	rows, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return rows, nil
}

// WriteSnapshot persists rows as a parquet snapshot (used by tests and tooling).
func WriteSnapshot(path string, rows []Record) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
