// ABOUTME: Cache commands
// ABOUTME: Reports and clears the on-disk chunk cache
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/chunkcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the remote chunk cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached chunk count and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		store, err := openCacheStore(cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := chunkcache.Usage(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d\n", s.Entries)
		fmt.Printf("size:    %s\n", formatBytes(s.Bytes))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached chunk",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		store, err := openCacheStore(cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := chunkcache.Clear(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached chunks\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
