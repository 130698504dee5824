package domain

// Metadata field names as persisted in the pre-built BNCC index.
const (
	FieldCode      = "codigo"
	FieldYear      = "ano"
	FieldStage     = "etapa"
	FieldComponent = "componente"
)

// Metadata holds the structured BNCC attributes of a skill excerpt. Empty means absent.
type Metadata struct {
	Code      string
	Year      string
	Stage     string
	Component string
}

// Get returns a metadata value by its index field name.
func (m Metadata) Get(field string) string {
	switch field {
	case FieldCode:
		return m.Code
	case FieldYear:
		return m.Year
	case FieldStage:
		return m.Stage
	case FieldComponent:
		return m.Component
	default:
		return ""
	}
}

// Document is a curriculum excerpt returned by the vector index. Immutable once loaded.
type Document struct {
	Content  string
	Metadata Metadata
}

// SimilarityResult is a single scored search hit (higher score = more similar).
type SimilarityResult struct {
	Document Document
	Score    float64
}

// Documents drops scores, preserving order.
func Documents(results []SimilarityResult) []Document {
	if len(results) == 0 {
		return nil
	}
	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return docs
}

// Contents returns the text of each document, preserving order.
func Contents(docs []Document) []string {
	if len(docs) == 0 {
		return nil
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}
