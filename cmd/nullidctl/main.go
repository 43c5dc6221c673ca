package main

import (
	"os"

	"nullid/internal/config"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

type cli struct {
	cfg *config.Config
}

func (c *cli) loadConfig(*cobra.Command, []string) error {
	cfg, err := config.MustLoad()
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:               "nullidctl",
		Short:             "Upload files for anonymization and manage the nullid stack",
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}
	root.AddCommand(
		newUploadCommand(c),
		newPolicyCommand(c),
		newStackCommand(c),
		newTokenCommand(c),
	)
	return root
}

func main() {
	zlog.Init()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
