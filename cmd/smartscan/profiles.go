package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/smartscan/internal/profile"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in scan profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := profile.List()
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			out := cmd.OutOrStdout()
			for i, name := range names {
				p, err := profile.LoadBuiltin(name)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, profile.Format(p))
			}
			return nil
		},
	}
}
