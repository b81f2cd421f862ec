package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Stash     StashConfig     `yaml:"stash" mapstructure:"stash"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ask       AskConfig       `yaml:"ask" mapstructure:"ask"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the document catalog backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// StashConfig configures the on-disk document stash.
type StashConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	InboxDir string `yaml:"inbox_dir" mapstructure:"inbox_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	Model         string `yaml:"model" mapstructure:"model"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
}

// AskConfig configures the document question-answering pipeline.
//
// Token estimates use a fixed 4-characters-per-token approximation, not a
// tokenizer-accurate count.
type AskConfig struct {
	MaxInputTokens       int   `yaml:"max_input_tokens" mapstructure:"max_input_tokens"`
	MaxOutputTokens      int   `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	TimeoutMs            int   `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	SplitAndSynthesize   bool  `yaml:"split_and_synthesize" mapstructure:"split_and_synthesize"`
	HardLimitBytes       int64 `yaml:"hard_limit_bytes" mapstructure:"hard_limit_bytes"`
	ChunkOverlapChars    int   `yaml:"chunk_overlap_chars" mapstructure:"chunk_overlap_chars"`
	PromptOverheadTokens int   `yaml:"prompt_overhead_tokens" mapstructure:"prompt_overhead_tokens"`
}

// Timeout returns the per-model-call timeout as a duration.
func (c AskConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// CacheConfig configures the in-memory content cache.
type CacheConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// ClassifyConfig configures inbox topic classification.
type ClassifyConfig struct {
	SampleBudgetChars int `yaml:"sample_budget_chars" mapstructure:"sample_budget_chars"`
	SampleChunks      int `yaml:"sample_chunks" mapstructure:"sample_chunks"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxBodyBytes  int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// SearchConfig configures full-text search over the stash.
type SearchConfig struct {
	RipgrepPath      string `yaml:"ripgrep_path" mapstructure:"ripgrep_path"`
	MaxMatchesPerDoc int    `yaml:"max_matches_per_doc" mapstructure:"max_matches_per_doc"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// SetDefaults registers the default value for every knob on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "docstash.db")
	v.SetDefault("stash.dir", "stash")
	v.SetDefault("stash.inbox_dir", "inbox")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("ask.max_input_tokens", 150000)
	v.SetDefault("ask.max_output_tokens", 4096)
	v.SetDefault("ask.timeout_ms", 300000)
	v.SetDefault("ask.split_and_synthesize", false)
	v.SetDefault("ask.hard_limit_bytes", int64(20*1024*1024))
	v.SetDefault("ask.chunk_overlap_chars", 500)
	v.SetDefault("ask.prompt_overhead_tokens", 2000)
	v.SetDefault("cache.max_bytes", int64(25*1024*1024))
	v.SetDefault("classify.sample_budget_chars", 50000)
	v.SetDefault("classify.sample_chunks", 5)
	v.SetDefault("fetch.user_agent", "docstash/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.rate_burst", 4)
	v.SetDefault("fetch.max_body_bytes", int64(32*1024*1024))
	v.SetDefault("search.ripgrep_path", "rg")
	v.SetDefault("search.max_matches_per_doc", 20)
	v.SetDefault("search.timeout_secs", 15)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
