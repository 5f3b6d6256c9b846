package main

import (
	"github.com/spf13/cobra"

	"NewsDigest/internal/infrastructure/mail"
)

func gmailAuthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "gmail-auth",
		Short: "Authorize Gmail sending and store the OAuth token file",
		RunE: func(cmd *cobra.Command, args []string) error {
			gmail := loadConfig(*configPath).Delivery.Email.Gmail
			return mail.Authorize(cmd.Context(), gmail.CredentialsFile, gmail.TokenFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
