package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

func (s *Source) extractPDF(ctx context.Context, path string) (models.Document, error) {
	start := time.Now()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := s.runner.Run(ctx, s.config.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return models.Document{}, fmt.Errorf("pdftotext %s: %w: %s", path, err, truncate(string(errb), 512))
	}
	s.logger.Debug("pdftotext ok",
		zap.String("path", path),
		zap.Int("stdout_bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)

	pages := splitPages(string(out))

	bar := s.pageBar(len(pages))
	var b strings.Builder
	for _, page := range pages {
		b.WriteString(page)
		b.WriteString("\n")
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return models.Document{
		Source:  path,
		Content: b.String(),
		Pages:   len(pages),
		Method:  "pdf-text",
	}, nil
}

// splitPages splits pdftotext output on its form-feed page separators. The
// separator after the last page does not start a new page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

func (s *Source) pageBar(pages int) *progressbar.ProgressBar {
	w := s.config.Progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Extracting PDF"),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
