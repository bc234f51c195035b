// ABOUTME: Version command
// ABOUTME: Prints the rawview version and, verbosely, the Go runtime and config path
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
		if verbose {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if cfg, err := GetConfig(); err == nil {
				fmt.Printf("  config: %s\n", cfg.Path())
			} else {
				fmt.Printf("  config: (unavailable: %v)\n", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
