package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// ErrClosed is returned by Summarize after Close.
var ErrClosed = errors.New("summarizer closed")

// SummarizerConfig represents the configuration for a summarizer.
type SummarizerConfig struct {
	Model          string
	Temperature    float64
	MinLength      int     // words
	MaxLength      int     // words, also bounds generated tokens
	RateLimit      float64 // requests per second
	SystemTemplate string
	BaseURL        string // Ollama server URL
}

// Summarizer produces short abstractive summaries of tender text chunks with
// an LLM. Construct it once, share it across documents, Close it at shutdown.
type Summarizer struct {
	config  SummarizerConfig
	llm     llms.Model
	limiter *rate.Limiter
	closed  atomic.Bool
}

// NewSummarizer creates a Summarizer backed by an Ollama server.
func NewSummarizer(config SummarizerConfig) (*Summarizer, error) {
	config, err := withDefaults(config)
	if err != nil {
		return nil, err
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return newSummarizer(config, llm), nil
}

// NewSummarizerWithModel creates a Summarizer on top of any langchaingo model.
func NewSummarizerWithModel(config SummarizerConfig, model llms.Model) (*Summarizer, error) {
	config, err := withDefaults(config)
	if err != nil {
		return nil, err
	}
	return newSummarizer(config, model), nil
}

func newSummarizer(config SummarizerConfig, model llms.Model) *Summarizer {
	return &Summarizer{
		config:  config,
		llm:     model,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func withDefaults(config SummarizerConfig) (SummarizerConfig, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return config, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxLength < 0 || config.MinLength < 0 {
		return config, fmt.Errorf("summary lengths cannot be negative")
	}
	if config.MaxLength == 0 {
		config.MaxLength = 100
	}
	if config.MinLength == 0 {
		config.MinLength = 30
	}
	if config.MinLength > config.MaxLength {
		return config, fmt.Errorf("min length %d exceeds max length %d", config.MinLength, config.MaxLength)
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 1
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You summarize public procurement and tender documents. " +
			"Write a plain factual summary of between %d and %d words. " +
			"Do not add headings, lists or information that is not in the text."
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	return config, nil
}

// Summarize returns a summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem,
			fmt.Sprintf(s.config.SystemTemplate, s.config.MinLength, s.config.MaxLength)),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := s.llm.GenerateContent(ctx, content,
		llms.WithTemperature(s.config.Temperature),
		llms.WithMaxTokens(maxTokens(s.config.MaxLength)),
	)
	if err != nil {
		return "", fmt.Errorf("summarize error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", fmt.Errorf("summarize error: no response from LLM")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// Close releases the summarizer. Later calls to Summarize fail with ErrClosed.
func (s *Summarizer) Close() error {
	s.closed.Store(true)
	return nil
}

// maxTokens leaves room for roughly 1.5 tokens per word.
func maxTokens(words int) int {
	return words * 3 / 2
}
