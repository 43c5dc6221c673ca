package main

import (
	"nullid/internal/app"
	nullidaws "nullid/internal/aws"
	"nullid/internal/stack"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

type stackView struct {
	stack.Stack
	FunctionPolicy stack.PolicyDocument `json:"functionPolicy"`
}

func newStackCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Show or provision the declared resources",
	}
	cmd.AddCommand(newStackShowCommand(c), newStackProvisionCommand(c))
	return cmd
}

func newStackShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stack declaration and the function policy as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := app.LoadTable(c.cfg)
			if err != nil {
				return err
			}
			s := stack.New(c.cfg, table)
			view := stackView{Stack: s, FunctionPolicy: s.Function.Document(c.cfg.Function.ErrorTopicARN)}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}

func newStackProvisionCommand(c *cli) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the error topic with its email subscription and verify the function grants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			table, err := app.LoadTable(c.cfg)
			if err != nil {
				return err
			}
			s := stack.New(c.cfg, table)

			awsCfg, err := nullidaws.LoadConfig(ctx, c.cfg.Storage.Region)
			if err != nil {
				return err
			}
			p := stack.NewProvisioner(sns.NewFromConfig(awsCfg), iam.NewFromConfig(awsCfg), &zlog.Logger)

			res, err := p.ProvisionTopic(ctx, s.Topic)
			if err != nil {
				return err
			}
			if !skipVerify {
				if err := p.VerifyGrants(ctx, s.Function.Document(res.TopicARN), s.Bucket.Name, res.TopicARN); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "do not simulate the function policy")
	return cmd
}
