package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	// Validate Summary config
	if c.Summary.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "summary.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Summary.MaxChunks < 1 {
		errors = append(errors, ValidationError{
			Field:   "summary.max_chunks",
			Message: "max_chunks must be positive",
		})
	}

	if c.Summary.MinLength < 0 || c.Summary.MinLength > c.Summary.MaxLength {
		errors = append(errors, ValidationError{
			Field:   "summary.min_length",
			Message: "min_length must be non-negative and not exceed max_length",
		})
	}

	if c.Summary.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "summary.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Extract config
	if c.Extract.DescriptionTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "extract.description_tokens",
			Message: "description_tokens must be positive",
		})
	}

	// Validate Source config
	if c.Source.TimeoutSec < 1 {
		errors = append(errors, ValidationError{
			Field:   "source.timeout_sec",
			Message: "timeout_sec must be positive",
		})
	}

	if c.Source.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "source.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || !strings.HasPrefix(u.Scheme, "postgres") {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Output config
	if c.Output.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "output.workers",
			Message: "workers must be positive",
		})
	}

	if c.Output.XLSX != "" && !strings.HasSuffix(strings.ToLower(c.Output.XLSX), ".xlsx") {
		errors = append(errors, ValidationError{
			Field:   "output.xlsx",
			Message: fmt.Sprintf("xlsx report must end in .xlsx: %s", c.Output.XLSX),
		})
	}

	return errors
}
