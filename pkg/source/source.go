// Package source turns tender documents (PDF, HTML pages, plain text) into
// a single text blob for extraction.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/logger"
)

var (
	// ErrUnsupported is returned for paths whose format cannot be read.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrEmpty is returned when a document yields no text at all.
	ErrEmpty = errors.New("document has no extractable text")
)

type SourceConfig struct {
	Pdftotext string        // binary name or absolute path; if empty -> "pdftotext"
	Timeout   time.Duration // HTTP timeout for URL sources
	UserAgent string
	RateLimit float64   // URL requests per second
	Progress  io.Writer // page progress bar output; nil disables it
	Runner    Runner    // command runner; nil uses os/exec
	Logger    *zap.Logger
}

// Source reads documents from local files or URLs.
type Source struct {
	config  SourceConfig
	client  *http.Client
	limiter *rate.Limiter
	runner  Runner
	logger  *zap.Logger
}

func NewWithConfig(config SourceConfig) *Source {
	if config.Pdftotext == "" {
		config.Pdftotext = "pdftotext"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "tenders/1.0"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	runner := config.Runner
	if runner == nil {
		runner = execRunner{}
	}
	log := logger.OrNop(config.Logger)

	return &Source{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		runner:  runner,
		logger:  log,
	}
}

// Extract reads the document at path, which may be a local file or an
// http(s) URL. Failure to open or parse the document is returned as is.
func (s *Source) Extract(ctx context.Context, path string) (models.Document, error) {
	start := time.Now()

	doc, err := s.extract(ctx, path)
	if err != nil {
		s.logger.Error("text extraction failed", zap.String("source", path), zap.Error(err))
		return models.Document{}, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return models.Document{}, fmt.Errorf("%s: %w", path, ErrEmpty)
	}

	s.logger.Info("text extracted",
		zap.String("source", path),
		zap.String("method", doc.Method),
		zap.Int("pages", doc.Pages),
		zap.Int("chars", len(doc.Content)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

func (s *Source) extract(ctx context.Context, path string) (models.Document, error) {
	if isURL(path) {
		return s.fetchHTML(ctx, path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return s.extractPDF(ctx, path)
	case ".html", ".htm":
		return s.readHTMLFile(path)
	case ".txt", ".text", "":
		return readTextFile(path)
	default:
		return models.Document{}, fmt.Errorf("%s: %w: %q", path, ErrUnsupported, ext)
	}
}

func readTextFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return models.Document{
		Source:  path,
		Content: string(data),
		Pages:   1,
		Method:  "text",
	}, nil
}

func isURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
