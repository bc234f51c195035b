// ABOUTME: Session commands
// ABOUTME: Resolves Alyx session probes to recording URLs
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionProbe int

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect Alyx sessions",
}

var sessionURLsCmd = &cobra.Command{
	Use:   "urls <session-id>",
	Short: "Print the compressed recording URLs of a probe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		client, err := alyxClient(cmd.Context(), cfg.Alyx)
		if err != nil {
			return err
		}
		urls, err := client.ResolveProbe(cmd.Context(), args[0], sessionProbe)
		if err != nil {
			return err
		}
		fmt.Printf("cbin: %s\n", urls.CBin)
		fmt.Printf("ch:   %s\n", urls.Ch)
		return nil
	},
}

func init() {
	sessionURLsCmd.Flags().IntVar(&sessionProbe, "probe", 0, "probe index")
	sessionCmd.AddCommand(sessionURLsCmd)
	rootCmd.AddCommand(sessionCmd)
}
