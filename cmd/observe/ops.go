package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/observe/internal/scenario"
)

func opsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List supported array operations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, op := range scenario.Ops() {
				fmt.Fprintln(cmd.OutOrStdout(), op)
			}
		},
	}
}
