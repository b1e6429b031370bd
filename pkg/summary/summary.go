// Package summary bounds what is sent to an external summarizer and makes
// sure its failures never leave this package.
package summary

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/internal/types"
	"github.com/xhad/tenders/pkg/logger"
	"github.com/xhad/tenders/pkg/processor"
)

type Config struct {
	ChunkSize int // characters per chunk, default 1000
	MaxChunks int // chunks summarized per document, default 2
}

// Builder turns document text into the Short Summary field.
type Builder struct {
	summarizer types.Summarizer
	processor  processor.Processor
	logger     *zap.Logger
}

// Outcome is the summary text plus how it was obtained.
type Outcome struct {
	Summary string
	Outcome models.FieldOutcome
}

// NewBuilder creates a Builder. A nil summarizer yields empty summaries.
func NewBuilder(s types.Summarizer, cfg Config, log *zap.Logger) *Builder {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 2
	}
	return &Builder{
		summarizer: s,
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize: cfg.ChunkSize,
			MaxChunks: cfg.MaxChunks,
		}),
		logger: logger.OrNop(log),
	}
}

// Build summarizes the leading chunks of text and joins the results. Chunks
// whose summarization fails are skipped; if all fail the summary is empty.
func (b *Builder) Build(ctx context.Context, text string) Outcome {
	if b.summarizer == nil {
		return Outcome{Outcome: models.Absent("summarizer disabled")}
	}

	chunks := b.processor.Chunks(text)
	if len(chunks) == 0 {
		return Outcome{Outcome: models.Absent("empty document")}
	}

	var parts []string
	var failures []string
	for i, chunk := range chunks {
		part, err := b.summarize(ctx, chunk)
		if err != nil {
			b.logger.Warn("chunk summarization failed", zap.Int("chunk", i), zap.Error(err))
			failures = append(failures, fmt.Sprintf("chunk %d: %v", i, err))
			continue
		}
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		if len(failures) > 0 {
			return Outcome{Outcome: models.Failed(strings.Join(failures, "; "))}
		}
		return Outcome{Outcome: models.Absent("summarizer returned nothing")}
	}

	return Outcome{
		Summary: strings.TrimSpace(strings.Join(parts, " ")),
		Outcome: models.Found(),
	}
}

// summarize calls the summarizer, turning a panic into an error.
func (b *Builder) summarize(ctx context.Context, chunk string) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarizer panic: %v", r)
		}
	}()
	return b.summarizer.Summarize(ctx, chunk)
}
