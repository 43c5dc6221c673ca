package main

import (
	"errors"
	"fmt"

	"nullid/internal/app"
	"nullid/internal/domain"
	"nullid/internal/policy"

	"github.com/spf13/cobra"
)

func newPolicyCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the storage access policy",
	}
	cmd.AddCommand(newPolicyShowCommand(c), newPolicyCheckCommand(c))
	return cmd
}

func newPolicyShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective access table as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := app.LoadTable(c.cfg)
			if err != nil {
				return err
			}
			data, err := table.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newPolicyCheckCommand(c *cli) *cobra.Command {
	var class, op string

	cmd := &cobra.Command{
		Use:   "check <key>",
		Short: "Check whether a principal class may read or write a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := domain.ParsePrincipalClass(class)
			if err != nil {
				return err
			}
			operation, err := domain.ParseOperation(op)
			if err != nil {
				return err
			}
			table, err := app.LoadTable(c.cfg)
			if err != nil {
				return err
			}
			authorizer, err := app.NewAuthorizer(cmd.Context(), c.cfg, table)
			if err != nil {
				return err
			}

			principal := domain.Principal{Subject: "nullidctl", Class: pc}
			err = authorizer.Authorize(cmd.Context(), principal, operation, args[0])
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "allow %s %s %s\n", pc, operation, args[0])
				return nil
			case errors.Is(err, policy.ErrAccessDenied), errors.Is(err, domain.ErrInvalidKey):
				fmt.Fprintf(cmd.OutOrStdout(), "deny %s %s %s\n", pc, operation, args[0])
				return err
			default:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&class, "principal", string(domain.PrincipalAuthenticated), "principal class: guest, authenticated or function")
	cmd.Flags().StringVar(&op, "op", string(domain.OpRead), "operation: read or write")
	return cmd
}
