// ABOUTME: Discover command
// ABOUTME: Finds frame servers over mDNS and optionally describes them
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/client"
	"github.com/Resonate-Protocol/rawview/internal/discovery"
)

var (
	discoverTimeout time.Duration
	discoverConnect bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find frame servers on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := discovery.Lookup(cmd.Context(), discoverTimeout)
		if err != nil {
			return err
		}
		if len(servers) == 0 {
			fmt.Println("No servers found")
			return nil
		}

		for _, s := range servers {
			fmt.Printf("%s\t%s%s\n", s.Name, s.Addr(), s.Path)
			if discoverConnect {
				describeServer(s.Addr())
			}
		}
		return nil
	},
}

// describeServer prints the recording a server is serving
func describeServer(addr string) {
	c := client.NewClient(client.Config{ServerAddr: addr, Name: "rawview-discover"})
	if err := c.Connect(); err != nil {
		fmt.Printf("  (unreachable: %v)\n", err)
		return
	}
	defer c.Close()

	h := c.Hello()
	fmt.Printf("  %s (protocol %d): %s, %d ch @ %.0f Hz, %d samples\n",
		h.Name, h.Version, h.Recording.Source, h.Recording.NChannels, h.Recording.SampleRate, h.Recording.NSamples)
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 3*time.Second, "how long to listen for answers")
	discoverCmd.Flags().BoolVar(&discoverConnect, "connect", false, "connect to each server and describe its recording")
	rootCmd.AddCommand(discoverCmd)
}
