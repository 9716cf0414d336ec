package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/internal/scenario"
)

func runCmd() *cobra.Command {
	var throttle time.Duration

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario and print its change events",
		Long: `Replay the operations of a YAML scenario against an observable
array. Each step is printed with its result and the changes, deleted
and added edit scripts it produced.

Examples:
  observe run groceries.yaml
  observe run groceries.yaml --throttle=100ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("O040").
					WithDetail("run needs exactly one scenario file.").
					WithExample("observe run groceries.yaml")
			}

			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("throttle") {
				if throttle < 0 {
					return errors.New("O014").WithDetail("--throttle must not be negative.")
				}
				sc.Throttle = throttle
			}

			arr, err := sc.NewArray()
			if err != nil {
				return err
			}
			return sc.Run(cmd.Context(), arr, cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVarP(&throttle, "throttle", "t", 0, "Throttle change notifications (overrides the scenario)")

	return cmd
}
