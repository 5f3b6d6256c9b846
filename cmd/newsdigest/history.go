package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history [link...]",
		Short: "Show send-history size or check whether links were already sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			links, err := application.History().Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "%d links in history\n", links.Len())
				return nil
			}
			for _, link := range args {
				state := "new"
				if links.Has(link) {
					state = "sent"
				}
				fmt.Fprintf(out, "%s\t%s\n", state, link)
			}
			return nil
		},
	}
}
