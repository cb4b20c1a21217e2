package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "client-intel",
	Short:         "client-intel - AI insights for institutional client coverage",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", path, "path to config file")
	rootCmd.AddCommand(serveCmd, insightsCmd, modelsCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load error: %w", err)
	}
	logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
