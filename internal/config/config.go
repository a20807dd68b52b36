// Package config loads settings from a YAML file, PDFABSTRACT_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thywilljoshua/pdf-abstracts/internal/ai"
	"github.com/thywilljoshua/pdf-abstracts/internal/extract"
)

const EnvPrefix = "PDFABSTRACT"

type Config struct {
	InputDir   string                     `mapstructure:"input_dir"`
	OutputDir  string                     `mapstructure:"output_dir"`
	Profile    string                     `mapstructure:"profile"`
	Workers    int                        `mapstructure:"workers"`
	DocTimeout time.Duration              `mapstructure:"doc_timeout"`
	LogLevel   string                     `mapstructure:"log_level"`
	LLM        LLMConfig                  `mapstructure:"llm"`
	Prompts    PromptsConfig              `mapstructure:"prompts"`
	Profiles   map[string]extract.Profile `mapstructure:"profiles"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Attempts int    `mapstructure:"attempts"`
}

type PromptsConfig struct {
	// Registry is a YAML or JSON file of instructions; empty means built-in.
	Registry  string `mapstructure:"registry"`
	Selection string `mapstructure:"selection"`
}

func DefaultConfig() Config {
	return Config{
		InputDir:   "Data/Raw",
		OutputDir:  "Data/Processed",
		Profile:    "standard",
		Workers:    8,
		DocTimeout: 2 * time.Minute,
		LogLevel:   "info",
		LLM: LLMConfig{
			Provider: ai.ProviderOff,
			Attempts: 3,
		},
		Prompts: PromptsConfig{Selection: "selected_prompt.json"},
	}
}

// Load reads cfgFile, or pdfabstract.yaml in the working directory or
// $HOME/.pdfabstract when cfgFile is empty. A missing default file is not
// an error. Non-zero values in overrides win over everything else.
func Load(cfgFile string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("doc_timeout", d.DocTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.attempts", d.LLM.Attempts)
	v.SetDefault("prompts.registry", d.Prompts.Registry)
	v.SetDefault("prompts.selection", d.Prompts.Selection)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfabstract")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pdfabstract")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, val := range overrides {
		if !isZero(val) {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LLM.APIKey = ResolveEnvVars(cfg.LLM.APIKey)
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.DocTimeout < 0 {
		return nil, fmt.Errorf("doc_timeout must not be negative, got %s", cfg.DocTimeout)
	}
	return &cfg, nil
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int:
		return x == 0
	case time.Duration:
		return x == 0
	}
	return false
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// ResolveProfile returns the extraction profile named in the config.
func (c *Config) ResolveProfile() (extract.Profile, error) {
	return extract.LookupProfile(c.Profile, c.Profiles)
}

// AIConfig converts the llm section for ai.New.
func (c *Config) AIConfig(log *slog.Logger) ai.Config {
	return ai.Config{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   c.LLM.APIKey,
		Attempts: c.LLM.Attempts,
		Log:      log,
	}
}

// SlogLevel maps log_level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
