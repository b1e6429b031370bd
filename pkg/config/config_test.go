package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TENDERS_LOG_LEVEL", "")
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  temperature: 0.2

summary:
  enabled: false
  chunk_size: 800
  max_chunks: 3

extract:
  description_tokens: 500
  prefer_month_first: true

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_tenders"

output:
  path: "out.json"
  xlsx: "report.xlsx"
  workers: 2

log:
  level: debug
  format: json
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.False(t, config.SummaryEnabled())
	assert.Equal(t, 800, config.Summary.ChunkSize)
	assert.Equal(t, 3, config.Summary.MaxChunks)
	assert.Equal(t, 500, config.Extract.DescriptionTokens)
	assert.True(t, config.Extract.PreferMonthFirst)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, "test_tenders", config.Database.TableName)
	assert.Equal(t, "out.json", config.Output.Path)
	assert.Equal(t, "report.xlsx", config.Output.XLSX)
	assert.Equal(t, 2, config.Output.Workers)
	assert.Equal(t, "debug", config.Log.Level)

	// Defaults fill what the file leaves out
	assert.Equal(t, 30, config.Summary.MinLength)
	assert.Equal(t, 100, config.Summary.MaxLength)
	assert.Equal(t, "pdftotext", config.Source.Pdftotext)
	assert.Empty(t, config.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)

	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.True(t, config.SummaryEnabled())
	assert.Equal(t, 1000, config.Summary.ChunkSize)
	assert.Equal(t, 2, config.Summary.MaxChunks)
	assert.Equal(t, 1000, config.Extract.DescriptionTokens)
	assert.False(t, config.Extract.PreferMonthFirst)
	assert.Equal(t, "tender_summary.json", config.Output.Path)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.False(t, config.Server.AllowLocalFiles)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "invalid llm",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "invalid-url"
				c.LLM.Temperature = 3.0
			},
			errorMessages: []string{
				"llm.base_url: invalid Ollama base URL",
				"llm.temperature: temperature must be between 0 and 1",
			},
		},
		{
			name: "invalid summary and extract",
			mutate: func(c *Config) {
				c.Summary.ChunkSize = 0
				c.Summary.MinLength = 200
				c.Extract.DescriptionTokens = -1
			},
			errorMessages: []string{
				"summary.chunk_size: chunk_size must be positive",
				"summary.min_length: min_length must be non-negative and not exceed max_length",
				"extract.description_tokens: description_tokens must be positive",
			},
		},
		{
			name: "invalid database and output",
			mutate: func(c *Config) {
				c.Database.URL = "mysql://localhost/db"
				c.Output.Workers = 0
				c.Output.XLSX = "report.csv"
			},
			errorMessages: []string{
				"database.url: invalid database URL",
				"output.workers: workers must be positive",
				"output.xlsx: xlsx report must end in .xlsx",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := getDefaultConfig()
			require.NoError(t, err)
			tt.mutate(config)

			errors := config.Validate()
			require.Len(t, errors, len(tt.errorMessages))
			for i, msg := range tt.errorMessages {
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("TENDERS_LOG_LEVEL", "warn")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestExampleConfig(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfig(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mistral", config.LLM.Model)
	assert.True(t, config.SummaryEnabled())
	assert.Empty(t, config.Validate())
}
