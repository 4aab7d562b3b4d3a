package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/monitoring"
)

var healthFormat string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print the engine health snapshot",
	Long:  "Shows per-provider circuit state, error rates and latency, singleflight counters, and cache counters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := buildServices(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}

		snap := svcs.Collector.Collect(cmd.Context())

		switch healthFormat {
		case "yaml":
			out, err := yaml.Marshal(snap)
			if err != nil {
				return eris.Wrap(err, "cmd: marshal health snapshot")
			}
			fmt.Print(string(out))
			return nil
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		case "table":
			printHealthTable(snap)
			return nil
		default:
			return eris.Errorf("cmd: unknown format %q", healthFormat)
		}
	},
}

func printHealthTable(snap *monitoring.Snapshot) {
	fmt.Printf("status: %s\n", snap.Status)
	fmt.Printf("cache: v%d, %d hits / %d misses (%d negative), remote ok: %v\n",
		snap.Cache.Version, snap.Cache.Hits, snap.Cache.Misses,
		snap.Cache.NegativeHits, snap.CacheRemoteOK)
	fmt.Printf("flight: %d total, %d executed, %d coalesced, %d errors\n",
		snap.Flight.Total, snap.Flight.Executed, snap.Flight.Coalesced, snap.Flight.Errors)

	if len(snap.Providers) == 0 {
		fmt.Println("providers: none recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tSTATE\tTOTAL\tERR RATE\tP50\tP95\tAVG COST")
	for _, m := range snap.Providers {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f%%\t%s\t%s\t%.1fc\n",
			m.Provider, m.State, m.Total, m.ErrorRate*100,
			m.P50Latency, m.P95Latency, m.AvgCostCents)
	}
	w.Flush() //nolint:errcheck
}

func init() {
	healthCmd.Flags().StringVar(&healthFormat, "format", "table", "output format: table, yaml, json")
	rootCmd.AddCommand(healthCmd)
}
