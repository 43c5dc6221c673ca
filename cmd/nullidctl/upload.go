package main

import (
	"fmt"
	"os"

	"nullid/internal/client/uploader"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

func newUploadCommand(c *cli) *cobra.Command {
	var server, token, contentType string

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a CSV or JSON file to uploads/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("NULLID_TOKEN")
			}
			u := uploader.New(uploader.NewHTTPTransport(server, token, nil), &zlog.Logger)

			if len(args) == 1 {
				f, err := uploader.FromPath(args[0])
				if err != nil {
					return err
				}
				f.ContentType = contentType
				u.Select(f)
			}

			err := u.Upload(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), u.Status())
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&token, "token", "", "session token (default $NULLID_TOKEN)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "override the detected content type")
	return cmd
}
