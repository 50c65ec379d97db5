package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mlxd/internal/config"
	"mlxd/internal/engine"
	"mlxd/internal/httpapi"
	"mlxd/internal/manager"
	"mlxd/internal/modelstore"
)

// engineFactory builds the inference backend. Overridden at link time or in
// tests; the default daemon runs without one and reports 503 on generation
// until a backend is linked in.
var engineFactory = func(log zerolog.Logger) engine.Engine { return nil }

type serveOptions struct {
	configPath   string
	addr         string
	modelsDir    string
	hubURL       string
	defaultModel string
	logLevel     string
}

func main() {
	opts := &serveOptions{}

	root := &cobra.Command{
		Use:          "mlxd",
		Short:        "Model daemon bridging the host completion protocol to an MLX backend",
		SilenceUsage: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	serve.Flags().StringVar(&opts.configPath, "config", "", "Path to a yaml/json/toml config file")
	serve.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :8080")
	serve.Flags().StringVar(&opts.modelsDir, "models-dir", "", "Local model cache directory")
	serve.Flags().StringVar(&opts.hubURL, "hub-url", "", "Base URL for remote model fetches")
	serve.Flags().StringVar(&opts.defaultModel, "default-model", "", "Model to load on startup")
	serve.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(opts *serveOptions) error {
	cfg := resolveConfig(opts)
	log := newLogger(cfg.LogLevel)

	store, err := modelstore.New(cfg.ModelsDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.ModelsDir).Msg("open model store")
		return err
	}
	fetcher := modelstore.NewHubFetcher(store, cfg.HubURL, log)

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Engine:         engineFactory(log),
		Store:          store,
		Fetcher:        fetcher,
		Logger:         log,
		MaxPromptChars: cfg.MaxPromptChars,
	})

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	if cfg.DefaultModel != "" {
		if err := mgr.Load(baseCtx, cfg.DefaultModel); err != nil {
			// Startup continues; the model can be loaded later over HTTP.
			log.Warn().Err(err).Str("model", cfg.DefaultModel).Msg("default model load failed")
		}
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(mgr)}
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", store.Root()).Msg("mlxd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// resolveConfig layers flags over environment over config file over defaults.
func resolveConfig(opts *serveOptions) config.Config {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			// Config file was requested explicitly; fail loud, not silent.
			l := zerolog.New(os.Stderr)
			l.Fatal().Err(err).Str("path", opts.configPath).Msg("load config")
		}
		cfg = loaded
	}

	pick := func(flagVal, envKey, fileVal, def string) string {
		if flagVal != "" {
			return flagVal
		}
		if v := os.Getenv(envKey); v != "" {
			return v
		}
		if fileVal != "" {
			return fileVal
		}
		return def
	}
	cfg.Addr = pick(opts.addr, "MLXD_ADDR", cfg.Addr, ":8080")
	cfg.ModelsDir = pick(opts.modelsDir, "MLXD_MODELS_DIR", cfg.ModelsDir, "~/.mlxd/models")
	cfg.HubURL = pick(opts.hubURL, "MLXD_HUB_URL", cfg.HubURL, "")
	cfg.DefaultModel = pick(opts.defaultModel, "MLXD_DEFAULT_MODEL", cfg.DefaultModel, "")
	cfg.LogLevel = pick(opts.logLevel, "MLXD_LOG_LEVEL", cfg.LogLevel, "info")
	if v := os.Getenv("MLXD_CORS_ORIGINS"); v != "" {
		cfg.CORSEnabled = true
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
	return cfg
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
