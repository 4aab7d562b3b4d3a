package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/resilience"
)

var breakerCmd = &cobra.Command{
	Use:   "breaker",
	Short: "Circuit breaker administration",
}

var breakerForceCmd = &cobra.Command{
	Use:   "force <provider> <closed|open|half-open>",
	Short: "Force a provider's circuit breaker into a state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName := args[0]
		state, err := resilience.ParseCircuitState(args[1])
		if err != nil {
			return err
		}

		svcs, err := buildServices(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}

		svcs.Breakers.Get(providerName).ForceState(state)
		zap.L().Info("breaker forced",
			zap.String("provider", providerName),
			zap.String("state", state.String()),
		)
		fmt.Printf("breaker %s forced to %s\n", providerName, state)
		return nil
	},
}

func init() {
	breakerCmd.AddCommand(breakerForceCmd)
	rootCmd.AddCommand(breakerCmd)
}
