package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache administration",
}

var cacheBumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Invalidate the whole cache by bumping the key version",
	Long: `Increments the cache version so every existing entry misses on its
next lookup. The new version must be persisted (ENRICH_CACHE_VERSION or
cache.version in config.yaml) or the next process start reverts it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := buildServices(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}

		v := svcs.Cache.InvalidateAll()
		zap.L().Info("cache invalidated", zap.Int64("version", v))
		fmt.Printf("cache version bumped to %d\n", v)
		fmt.Printf("persist it: export ENRICH_CACHE_VERSION=%d\n", v)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheBumpCmd)
	rootCmd.AddCommand(cacheCmd)
}
