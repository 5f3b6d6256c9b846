package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one collect, curate and deliver pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), *configPath)
		},
	}
}

func runOnce(ctx context.Context, configPath string) error {
	application, logger, err := buildApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Run(ctx)
	for _, src := range report.Sources {
		attrs := []any{"run_id", report.RunID, "source", src.Source, "status", src.Status, "items", src.Items}
		if src.Err != nil {
			attrs = append(attrs, "error", src.Err)
		}
		logger.Info("source outcome", attrs...)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", report.RunID, err)
	}
	logger.Info("run summary",
		"run_id", report.RunID,
		"collected", report.Collected,
		"new", report.New,
		"curated", report.Curated,
		"sinks_ok", report.Delivery.Succeeded(),
		"history_written", report.HistoryWritten,
	)
	return nil
}
