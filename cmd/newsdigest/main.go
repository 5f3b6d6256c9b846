package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/config"
	"NewsDigest/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("cannot load .env", "error", err)
	}

	var configPath string
	root := &cobra.Command{
		Use:           "newsdigest",
		Short:         "Collects keyword-matched news and delivers a daily digest",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default $NEWS_DIGEST_CONFIG)")

	root.AddCommand(
		runCmd(&configPath),
		scheduleCmd(&configPath),
		historyCmd(&configPath),
		gmailAuthCmd(&configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("newsdigest stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) config.Config {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func buildApp(ctx context.Context, path string) (*app.Application, *slog.Logger, error) {
	cfg := loadConfig(path)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
