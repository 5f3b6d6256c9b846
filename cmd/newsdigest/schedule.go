package main

import (
	"github.com/spf13/cobra"
)

func scheduleCmd(configPath *string) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the digest on the configured cron expression until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Schedule(cmd.Context(), runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}
