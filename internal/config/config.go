// Package config assembles the service configuration: built-in defaults, an
// optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultProvider       = "gemini"
	defaultModel          = "gemini-1.5-flash"
	defaultTimeoutSec     = 60
	defaultMaxRetries     = 2
	defaultBackoffMs      = 1000
	defaultMaxElapsedSec  = 45
	defaultMinFields      = 5
	defaultMaxChars       = 30000
	defaultReportFileName = "GOAA_Report.xlsx"
	defaultDebounceMs     = 2000
)

// Response formats accepted by analysis.response_format.
const (
	FormatDelimited = "delimited"
	FormatJSON      = "json"
)

// ValidProviders lists the llm.provider values the factory understands.
var ValidProviders = []string{"gemini", "openai", "gateway", "anthropic", "ollama", "mistral", "groq", "deepseek", "mock"}

type Config struct {
	Environment string         `yaml:"environment"`
	LogLevel    string         `yaml:"log_level"`
	Server      ServerConfig   `yaml:"server"`
	LLM         LLMConfig      `yaml:"llm"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Report      ReportConfig   `yaml:"report"`
	Archive     ArchiveConfig  `yaml:"archive"`
	Watch       WatchConfig    `yaml:"watch"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	Temperature float64 `yaml:"temperature"`

	// Retry policy for transient failures. MaxRetries 0 disables retrying.
	MaxRetries    int `yaml:"max_retries"`
	BackoffMs     int `yaml:"backoff_ms"`
	MaxElapsedSec int `yaml:"max_elapsed_sec"`
}

func (c LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

func (c LLMConfig) InitialBackoff() time.Duration { return time.Duration(c.BackoffMs) * time.Millisecond }

func (c LLMConfig) MaxElapsed() time.Duration { return time.Duration(c.MaxElapsedSec) * time.Second }

type AnalysisConfig struct {
	// MinFields is the fewest delimited fields accepted before padding.
	MinFields      int    `yaml:"min_fields"`
	MaxChars       int    `yaml:"max_chars"`
	ResponseFormat string `yaml:"response_format"`
}

type ReportConfig struct {
	FileName string `yaml:"file_name"`
}

type ArchiveConfig struct {
	// Path of the SQLite archive; empty disables archiving.
	Path string `yaml:"path"`
}

type WatchConfig struct {
	InboxDir   string `yaml:"inbox_dir"`
	OutboxDir  string `yaml:"outbox_dir"`
	DebounceMs int    `yaml:"debounce_ms"`
}

func (c WatchConfig) Debounce() time.Duration { return time.Duration(c.DebounceMs) * time.Millisecond }

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: defaultPort},
		LLM: LLMConfig{
			Provider:      defaultProvider,
			Model:         defaultModel,
			TimeoutSec:    defaultTimeoutSec,
			MaxRetries:    defaultMaxRetries,
			BackoffMs:     defaultBackoffMs,
			MaxElapsedSec: defaultMaxElapsedSec,
		},
		Analysis: AnalysisConfig{
			MinFields:      defaultMinFields,
			MaxChars:       defaultMaxChars,
			ResponseFormat: FormatDelimited,
		},
		Report: ReportConfig{FileName: defaultReportFileName},
		Watch:  WatchConfig{DebounceMs: defaultDebounceMs},
	}
}

// Load reads the optional YAML file at path (empty path skips it), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	ApplyEnv(cfg, os.LookupEnv)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML over the defaults and validates, without
// consulting the environment.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("ENVIRONMENT", &cfg.Environment)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("PORT", &cfg.Server.Port)

	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("LLM_MODEL", &cfg.LLM.Model)
	str("GEMINI_API_KEY", &cfg.LLM.APIKey)
	str("LLM_API_KEY", &cfg.LLM.APIKey)
	str("LLM_GATEWAY_URL", &cfg.LLM.BaseURL)
	num("LLM_TIMEOUT_SEC", &cfg.LLM.TimeoutSec)
	num("LLM_MAX_RETRIES", &cfg.LLM.MaxRetries)
	if v, ok := lookup("USE_MOCK_LLM"); ok && v == "true" {
		cfg.LLM.Provider = "mock"
	}

	num("ANALYSIS_MIN_FIELDS", &cfg.Analysis.MinFields)
	num("ANALYSIS_MAX_CHARS", &cfg.Analysis.MaxChars)
	str("ANALYSIS_RESPONSE_FORMAT", &cfg.Analysis.ResponseFormat)

	str("REPORT_FILE_NAME", &cfg.Report.FileName)
	str("ARCHIVE_PATH", &cfg.Archive.Path)
	str("INBOX_DIR", &cfg.Watch.InboxDir)
	str("OUTBOX_DIR", &cfg.Watch.OutboxDir)
}

// Validate returns every problem found, joined.
func Validate(cfg *Config) error {
	var errs []error

	if !slices.Contains(ValidProviders, cfg.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider %q is invalid; valid values: %s", cfg.LLM.Provider, strings.Join(ValidProviders, ", ")))
	}
	if cfg.LLM.Provider != "mock" && cfg.LLM.Provider != "ollama" && cfg.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q", cfg.LLM.Provider))
	}
	if cfg.LLM.Provider == "gateway" && cfg.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required for the gateway provider"))
	}
	if cfg.LLM.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_sec must be positive, got %d", cfg.LLM.TimeoutSec))
	}
	if cfg.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries must not be negative, got %d", cfg.LLM.MaxRetries))
	}
	if cfg.Analysis.MinFields < 1 || cfg.Analysis.MinFields > 18 {
		errs = append(errs, fmt.Errorf("analysis.min_fields %d is out of range [1, 18]", cfg.Analysis.MinFields))
	}
	if cfg.Analysis.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("analysis.max_chars must be positive, got %d", cfg.Analysis.MaxChars))
	}
	switch cfg.Analysis.ResponseFormat {
	case FormatDelimited, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("analysis.response_format %q is invalid; valid values: delimited, json", cfg.Analysis.ResponseFormat))
	}
	if cfg.Report.FileName == "" {
		errs = append(errs, errors.New("report.file_name must not be empty"))
	}

	return errors.Join(errs...)
}
