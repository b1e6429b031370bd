package processor

import (
	"strings"
)

type ProcessorConfig struct {
	ChunkSize         int // characters per summarizer chunk
	MaxChunks         int // 0 = all chunks
	DescriptionTokens int // whitespace-delimited tokens kept in a description
}

// Processor slices document text into the bounded pieces the rest of the
// pipeline works with.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.DescriptionTokens <= 0 {
		config.DescriptionTokens = 1000
	}

	return Processor{
		config: config,
	}
}

// Chunks splits text into consecutive slices of ChunkSize characters. The
// last chunk may be shorter. At most MaxChunks are returned when set.
func (p *Processor) Chunks(text string) []string {
	runes := []rune(text)
	size := p.config.ChunkSize

	var chunks []string
	for start := 0; start < len(runes); start += size {
		if p.config.MaxChunks > 0 && len(chunks) == p.config.MaxChunks {
			break
		}
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

// Description returns the first DescriptionTokens whitespace-delimited
// tokens of text joined by single spaces.
func (p *Processor) Description(text string) string {
	words := strings.Fields(text)
	if len(words) > p.config.DescriptionTokens {
		words = words[:p.config.DescriptionTokens]
	}
	return strings.Join(words, " ")
}
