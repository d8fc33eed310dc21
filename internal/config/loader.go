package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"formalizer/internal/engine"
	"formalizer/internal/rewrite"
)

// EnvPrefix prefixes every environment override, e.g. FORMALIZER_ADDR.
const EnvPrefix = "formalizer"

// Config holds runtime parameters for the service.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr" split_words:"true"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" toml:"metrics_addr" split_words:"true"`
	ModelID     string `json:"model_id" yaml:"model_id" toml:"model_id" split_words:"true"`

	Engine               string   `json:"engine" yaml:"engine" toml:"engine" split_words:"true"`
	EngineURL            string   `json:"engine_url" yaml:"engine_url" toml:"engine_url" split_words:"true"`
	EngineAPIKey         string   `json:"engine_api_key" yaml:"engine_api_key" toml:"engine_api_key" split_words:"true"`
	EngineModel          string   `json:"engine_model" yaml:"engine_model" toml:"engine_model" split_words:"true"`
	EngineTimeout        Duration `json:"engine_timeout" yaml:"engine_timeout" toml:"engine_timeout" split_words:"true"`
	EngineConnectTimeout Duration `json:"engine_connect_timeout" yaml:"engine_connect_timeout" toml:"engine_connect_timeout" split_words:"true"`
	ModelPath            string   `json:"model_path" yaml:"model_path" toml:"model_path" split_words:"true"`
	LlamaCtx             int      `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx" split_words:"true"`
	LlamaThreads         int      `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads" split_words:"true"`
	MockReply            string   `json:"mock_reply" yaml:"mock_reply" toml:"mock_reply" split_words:"true"`
	MockDelay            Duration `json:"mock_delay" yaml:"mock_delay" toml:"mock_delay" split_words:"true"`

	GenerateTimeout Duration `json:"generate_timeout" yaml:"generate_timeout" toml:"generate_timeout" split_words:"true"`
	MaxConcurrency  int      `json:"max_concurrency" yaml:"max_concurrency" toml:"max_concurrency" split_words:"true"`
	MaxQueueDepth   int      `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" split_words:"true"`
	MaxWait         Duration `json:"max_wait" yaml:"max_wait" toml:"max_wait" split_words:"true"`
	MaxBodyBytes    int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" split_words:"true"`
	ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout" split_words:"true"`

	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level" split_words:"true"`
	LogFormat       string `json:"log_format" yaml:"log_format" toml:"log_format" split_words:"true"`
	RequestLogLevel string `json:"request_log_level" yaml:"request_log_level" toml:"request_log_level" split_words:"true"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" split_words:"true"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins" split_words:"true"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods" split_words:"true"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers" split_words:"true"`
}

// Defaults returns the configuration used when nothing else is given.
func Defaults() Config {
	return Config{
		Addr:                 ":5005",
		ModelID:              "google/flan-t5-base",
		Engine:               engine.BackendMock,
		EngineTimeout:        Duration(2 * time.Minute),
		EngineConnectTimeout: Duration(5 * time.Second),
		LlamaCtx:             2048,
		MaxConcurrency:       1,
		MaxBodyBytes:         1 << 20,
		ShutdownTimeout:      Duration(10 * time.Second),
		LogLevel:             "info",
		LogFormat:            "json",
		RequestLogLevel:      "info",
		CORSAllowedOrigins:   []string{"*"},
		CORSAllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
	}
}

// Load reads a configuration file based on its extension on top of Defaults.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays FORMALIZER_* environment variables onto cfg. Variables
// from dotenv (default ".env") are loaded first without overriding the real
// environment; a missing default file is not an error.
func ApplyEnv(cfg *Config, dotenv string) error {
	explicit := dotenv != ""
	if !explicit {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr is required")
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return errors.New("model_id is required")
	}
	switch strings.ToLower(c.Engine) {
	case engine.BackendLlama:
		if c.ModelPath == "" {
			return errors.New("engine llama requires model_path")
		}
	case engine.BackendOpenAI, engine.BackendTGI:
		if c.EngineURL == "" {
			return fmt.Errorf("engine %s requires engine_url", c.Engine)
		}
	case engine.BackendMock:
	default:
		return fmt.Errorf("unknown engine %q (want llama|openai|tgi|mock)", c.Engine)
	}
	if c.MaxConcurrency < 0 || c.MaxQueueDepth < 0 || c.MaxBodyBytes < 0 {
		return errors.New("max_concurrency, max_queue_depth and max_body_bytes must not be negative")
	}
	if c.MaxQueueDepth > 0 && c.MaxQueueDepth < c.MaxConcurrency {
		return fmt.Errorf("max_queue_depth (%d) must be at least max_concurrency (%d)", c.MaxQueueDepth, c.MaxConcurrency)
	}
	if c.EngineTimeout < 0 || c.GenerateTimeout < 0 || c.MaxWait < 0 || c.MockDelay < 0 || c.ShutdownTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log_format %q (want json|console)", c.LogFormat)
	}
	return nil
}

// EngineConfig selects and parameterizes the generation backend.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		Backend:        c.Engine,
		URL:            c.EngineURL,
		APIKey:         c.EngineAPIKey,
		Model:          c.EngineModel,
		ModelPath:      c.ModelPath,
		LlamaCtx:       c.LlamaCtx,
		LlamaThreads:   c.LlamaThreads,
		Timeout:        c.EngineTimeout.D(),
		ConnectTimeout: c.EngineConnectTimeout.D(),
		MockReply:      c.MockReply,
		MockDelay:      c.MockDelay.D(),
	}
}

// RewriteConfig tunes admission and timeouts of the orchestrator.
func (c Config) RewriteConfig() rewrite.Config {
	return rewrite.Config{
		MaxConcurrency: c.MaxConcurrency,
		MaxQueueDepth:  c.MaxQueueDepth,
		MaxWait:        c.MaxWait.D(),
		Timeout:        c.GenerateTimeout.D(),
	}
}
