package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/todochat/internal/version"
)

const defaultServer = "http://localhost:8000"

type globalOptions struct {
	Server string
	Token  string
}

func (o *globalOptions) client() *Client {
	return &Client{
		BaseURL:    strings.TrimRight(o.Server, "/"),
		Token:      o.Token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage your todo list from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TODO_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&opts.Server, "server", server, "todochat server URL (or $TODO_SERVER)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("TODO_TOKEN"), "bearer token (or $TODO_TOKEN)")

	cmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(opts),
		newSignupCmd(opts),
		newLoginCmd(opts),
		newTasksCmd(opts),
		newChatCmd(opts),
		newUpdateCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.BuildDate)
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result map[string]any
			if err := opts.client().get(cmd.Context(), "/api/status", &result); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:  %s\n", strVal(result["status"]))
			fmt.Fprintf(out, "version: %s\n", strVal(result["version"]))
			fmt.Fprintf(out, "oracle:  %s\n", strVal(result["oracle"]))
			return nil
		},
	}
}
