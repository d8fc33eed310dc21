package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"formalizer/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "formalizer",
		Short:         "HTTP service that rewrites text in a formal register",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Dotenv file to load before reading FORMALIZER_* variables (default .env if present)")

	root.AddCommand(newServeCmd(opts), newConfigCmd(opts))
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  formalizer serve --engine tgi --engine-url http://localhost:8080\n  formalizer serve -c formalizer.yaml --metrics-addr :9090",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			applyServeFlags(cmd.Flags(), &cfg)
			return runServe(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address, e.g. :5005")
	f.String("metrics-addr", "", "Listen address for /metrics (empty disables)")
	f.String("model-id", "", "Model identifier reported by /health")
	f.String("engine", "", "Generation engine: llama|openai|tgi|mock")
	f.String("engine-url", "", "Base URL of the openai or tgi engine")
	f.String("engine-model", "", "Model name sent to the engine, or .gguf file name for llama")
	f.String("model-path", "", "Path to a .gguf file or a directory of them (llama)")
	f.Int("max-concurrency", 0, "Concurrent engine calls for engines that allow it")
	f.Int("max-queue-depth", 0, "Bound on waiting plus in-flight requests (0 = unbounded)")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: json|console")
	f.Bool("cors", false, "Enable CORS")
	f.String("cors-origins", "", "Comma-separated allowed CORS origins")
	return cmd
}

// applyServeFlags copies explicitly set flags over cfg.
func applyServeFlags(fs *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	str("addr", &cfg.Addr)
	str("metrics-addr", &cfg.MetricsAddr)
	str("model-id", &cfg.ModelID)
	str("engine", &cfg.Engine)
	str("engine-url", &cfg.EngineURL)
	str("engine-model", &cfg.EngineModel)
	str("model-path", &cfg.ModelPath)
	num("max-concurrency", &cfg.MaxConcurrency)
	num("max-queue-depth", &cfg.MaxQueueDepth)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	if fs.Changed("cors") {
		cfg.CORSEnabled, _ = fs.GetBool("cors")
	}
	if fs.Changed("cors-origins") {
		v, _ := fs.GetString("cors-origins")
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			if cfg.EngineAPIKey != "" {
				cfg.EngineAPIKey = "<redacted>"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// resolveConfig layers defaults, the optional config file and the environment.
func resolveConfig(opts *rootOptions) (config.Config, error) {
	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	if err := config.ApplyEnv(&cfg, opts.envFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
