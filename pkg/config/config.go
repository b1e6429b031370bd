package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		EmbedModel  string  `yaml:"embed_model"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Summary struct {
		Enabled   *bool   `yaml:"enabled"`
		ChunkSize int     `yaml:"chunk_size"`
		MaxChunks int     `yaml:"max_chunks"`
		MinLength int     `yaml:"min_length"`
		MaxLength int     `yaml:"max_length"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"summary"`

	Extract struct {
		DescriptionTokens int  `yaml:"description_tokens"`
		PreferMonthFirst  bool `yaml:"prefer_month_first"`
	} `yaml:"extract"`

	Source struct {
		Pdftotext  string  `yaml:"pdftotext"`
		TimeoutSec int     `yaml:"timeout_sec"`
		UserAgent  string  `yaml:"user_agent"`
		RateLimit  float64 `yaml:"rate_limit"`
	} `yaml:"source"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Output struct {
		Path    string `yaml:"path"`
		XLSX    string `yaml:"xlsx"`
		Workers int    `yaml:"workers"`
	} `yaml:"output"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		AllowLocalFiles bool   `yaml:"allow_local_files"`
	} `yaml:"server"`
}

// SummaryEnabled reports whether the summarizer should run. Unset means on.
func (c *Config) SummaryEnabled() bool {
	return c.Summary.Enabled == nil || *c.Summary.Enabled
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/tenders/config.yaml"),
			"/etc/tenders/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.1
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Summary.ChunkSize == 0 {
		config.Summary.ChunkSize = 1000
	}
	if config.Summary.MaxChunks == 0 {
		config.Summary.MaxChunks = 2
	}
	if config.Summary.MinLength == 0 {
		config.Summary.MinLength = 30
	}
	if config.Summary.MaxLength == 0 {
		config.Summary.MaxLength = 100
	}
	if config.Summary.RateLimit == 0 {
		config.Summary.RateLimit = 1.0
	}

	if config.Extract.DescriptionTokens == 0 {
		config.Extract.DescriptionTokens = 1000
	}

	if config.Source.Pdftotext == "" {
		config.Source.Pdftotext = "pdftotext"
	}
	if config.Source.TimeoutSec == 0 {
		config.Source.TimeoutSec = 30
	}
	if config.Source.UserAgent == "" {
		config.Source.UserAgent = "tenders/1.0"
	}
	if config.Source.RateLimit == 0 {
		config.Source.RateLimit = 2.0
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "tenders"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Output.Path == "" {
		config.Output.Path = "tender_summary.json"
	}
	if config.Output.Workers == 0 {
		config.Output.Workers = 4
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if level := os.Getenv("TENDERS_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
