package main

import (
	"fmt"

	"nullid/internal/auth"
	"nullid/internal/domain"

	"github.com/spf13/cobra"
)

func newTokenCommand(c *cli) *cobra.Command {
	var subject, class string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token signed with the configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pc, err := domain.ParsePrincipalClass(class)
			if err != nil {
				return err
			}
			secret := c.cfg.Auth.JWTSecret
			if secret == "" && c.cfg.Env == "local" {
				secret = auth.DevSecret
			}
			tokens := auth.NewTokenManager(secret, c.cfg.Auth.Issuer, c.cfg.Auth.TokenTTL)

			token, expiresAt, err := tokens.Issue(domain.Principal{Subject: subject, Class: pc})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().StringVar(&class, "class", string(domain.PrincipalAuthenticated), "principal class")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
