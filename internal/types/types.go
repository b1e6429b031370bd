package types

import (
	"context"

	"github.com/xhad/tenders/internal/models"
)

// Core interfaces

// TextSource turns a document path or URL into its full text.
type TextSource interface {
	Extract(ctx context.Context, path string) (models.Document, error)
}

// Summarizer produces a short abstractive summary of a bounded text chunk.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// RecordStore persists extracted records.
type RecordStore interface {
	Save(ctx context.Context, source string, record models.ExtractedRecord) (string, error)
	Close()
}
