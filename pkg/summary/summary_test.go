package summary_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/pkg/summary"
)

type recordingSummarizer struct {
	mu     sync.Mutex
	inputs []string
	fail   map[int]error
	panics bool
}

func (r *recordingSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := len(r.inputs)
	r.inputs = append(r.inputs, text)
	if r.panics {
		panic("model crashed")
	}
	if err, ok := r.fail[i]; ok {
		return "", err
	}
	return fmt.Sprintf(" summary %d ", i), nil
}

func TestBuildSummarizesFirstTwoChunks(t *testing.T) {
	s := &recordingSummarizer{}
	b := summary.NewBuilder(s, summary.Config{}, nil)

	text := strings.Repeat("a", 1000) + strings.Repeat("b", 1000) + strings.Repeat("c", 500)
	out := b.Build(context.Background(), text)

	assert.Equal(t, "summary 0 summary 1", out.Summary)
	assert.Equal(t, models.StatusFound, out.Outcome.Status)
	require.Len(t, s.inputs, 2)
	assert.Equal(t, strings.Repeat("a", 1000), s.inputs[0])
	assert.Equal(t, strings.Repeat("b", 1000), s.inputs[1])
}

func TestBuildShortDocument(t *testing.T) {
	s := &recordingSummarizer{}
	b := summary.NewBuilder(s, summary.Config{ChunkSize: 1000, MaxChunks: 2}, nil)

	out := b.Build(context.Background(), "short tender text")

	assert.Equal(t, "summary 0", out.Summary)
	assert.Len(t, s.inputs, 1)
}

func TestBuildSkipsFailedChunk(t *testing.T) {
	s := &recordingSummarizer{fail: map[int]error{0: errors.New("timeout")}}
	b := summary.NewBuilder(s, summary.Config{ChunkSize: 3}, nil)

	out := b.Build(context.Background(), "abcdef")

	assert.Equal(t, "summary 1", out.Summary)
	assert.Equal(t, models.StatusFound, out.Outcome.Status)
}

func TestBuildAllChunksFail(t *testing.T) {
	boom := errors.New("model unavailable")
	s := &recordingSummarizer{fail: map[int]error{0: boom, 1: boom}}
	b := summary.NewBuilder(s, summary.Config{ChunkSize: 3}, nil)

	out := b.Build(context.Background(), "abcdef")

	assert.Equal(t, "", out.Summary)
	assert.Equal(t, models.StatusFailed, out.Outcome.Status)
	assert.Contains(t, out.Outcome.Reason, "model unavailable")
}

func TestBuildRecoversFromPanic(t *testing.T) {
	b := summary.NewBuilder(&recordingSummarizer{panics: true}, summary.Config{}, nil)

	out := b.Build(context.Background(), "text")

	assert.Equal(t, "", out.Summary)
	assert.Equal(t, models.StatusFailed, out.Outcome.Status)
	assert.Contains(t, out.Outcome.Reason, "model crashed")
}

func TestBuildWithoutSummarizer(t *testing.T) {
	b := summary.NewBuilder(nil, summary.Config{}, nil)

	out := b.Build(context.Background(), "text")

	assert.Equal(t, "", out.Summary)
	assert.Equal(t, models.StatusAbsent, out.Outcome.Status)
}

func TestBuildEmptyText(t *testing.T) {
	s := &recordingSummarizer{}
	b := summary.NewBuilder(s, summary.Config{}, nil)

	out := b.Build(context.Background(), "")

	assert.Equal(t, "", out.Summary)
	assert.Empty(t, s.inputs)
}
