package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/todochat/internal/version"
	"github.com/GoCodeAlone/todochat/update"
)

func newUpdateCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release of the CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := update.New(version.Version)
			rel, err := u.CheckForUpdate(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rel == nil {
				fmt.Fprintln(out, "already up to date")
				return nil
			}
			if !apply {
				fmt.Fprintf(out, "%s is available, run `todo update --apply` to install it\n", rel.Version)
				return nil
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			if err := u.Apply(cmd.Context(), rel, exe); err != nil {
				return err
			}
			fmt.Fprintf(out, "updated to %s\n", rel.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "download and install the update")
	return cmd
}
