package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/siren.report/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "siren %s (%s, built %s)\n",
				version.Version, version.GitSHA, version.BuildTime)
		},
	}
}
