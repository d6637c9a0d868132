// Package config loads the edgellm configuration file and applies defaults,
// environment overrides and validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"edgellm/internal/common/cfgerr"
	"edgellm/internal/logging"
	"edgellm/internal/rag"
	"edgellm/internal/session"
)

// Config holds runtime parameters for the CLI and the HTTP server.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// SystemPrompt is installed right after the model loads when non-empty.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	// TranscriptPath is a sqlite database recording completed turns; empty disables it.
	TranscriptPath string                  `json:"transcript_path" yaml:"transcript_path" toml:"transcript_path"`
	MaxBodyBytes   int64                   `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ChatTimeoutSec int64                   `json:"chat_timeout_seconds" yaml:"chat_timeout_seconds" toml:"chat_timeout_seconds"`
	Params         session.InferenceParams `json:"params" yaml:"params" toml:"params"`
	Chunk          ChunkConfig             `json:"chunk" yaml:"chunk" toml:"chunk"`
	CORS           CORSConfig              `json:"cors" yaml:"cors" toml:"cors"`
}

// ChunkConfig sets the text splitter window, in words.
type ChunkConfig struct {
	Size    int `json:"size" yaml:"size" toml:"size"`
	Overlap int `json:"overlap" yaml:"overlap" toml:"overlap"`
}

// CORSConfig enables cross-origin access to the HTTP API.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:         ":8080",
		ModelsDir:    "~/models/llm",
		LogLevel:     "info",
		LogFormat:    "console",
		MaxBodyBytes: 1 << 20,
		Params:       session.DefaultParams(),
		Chunk:        ChunkConfig{Size: rag.DefaultChunkSize, Overlap: rag.DefaultChunkOverlap},
	}
}

// Load reads a configuration file based on its extension and overlays it on
// Default, so keys absent from the file keep their default values.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Environment variables consulted by ApplyEnv.
const (
	EnvConfig   = "EDGELLM_CONFIG"
	EnvAddr     = "EDGELLM_ADDR"
	EnvLogLevel = "EDGELLM_LOG_LEVEL"
	EnvModel    = "EDGELLM_MODEL"
)

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvModel); ok && v != "" {
		c.ModelPath = v
	}
}

// Validate checks every invariant of the configuration.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if _, err := rag.NewTextSplitter(c.Chunk.Size, c.Chunk.Overlap); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return cfgerr.New("log_level", "unknown level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return cfgerr.New("log_format", "must be console or json, got %q", c.LogFormat)
	}
	if c.MaxBodyBytes < 0 {
		return cfgerr.New("max_body_bytes", "must be >= 0, got %d", c.MaxBodyBytes)
	}
	if c.ChatTimeoutSec < 0 {
		return cfgerr.New("chat_timeout_seconds", "must be >= 0, got %d", c.ChatTimeoutSec)
	}
	return nil
}

// Splitter builds the text splitter described by Chunk.
func (c Config) Splitter() (*rag.TextSplitter, error) {
	return rag.NewTextSplitter(c.Chunk.Size, c.Chunk.Overlap)
}
