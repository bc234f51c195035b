// ABOUTME: View command
// ABOUTME: Browses a recording in the terminal or a desktop window
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/internal/ui"
	"github.com/Resonate-Protocol/rawview/internal/window"
	"github.com/Resonate-Protocol/rawview/pkg/colormap"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

var (
	viewFlags    recordingFlags
	viewWindow   bool
	viewBaseline bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse a recording",
	Long: `Browse a recording one window at a time.

Keys:
  left/right  step a quarter window
  +/-         zoom the colour scale
  home/end    jump to the start or end
  g           go to a time in seconds
  r           reset the colour scale
  click       show the sample under the cursor
  q           quit

The terminal viewer is the default; --window opens a desktop window.`,
	RunE: runView,
}

func init() {
	viewFlags.register(viewCmd)
	viewCmd.Flags().BoolVar(&viewWindow, "window", false, "open a desktop window instead of the terminal viewer")
	viewCmd.Flags().BoolVar(&viewBaseline, "baseline", false, "subtract each channel's median from the window before display")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rec, err := viewFlags.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	opts := viewer.Options{
		BufferSize: viewFlags.buffer(cfg.Viewer),
		Baseline:   viewBaseline,
	}
	cmapName := viewFlags.colormap
	if cmapName == "" {
		cmapName = cfg.Viewer.Colormap
	}
	if cmapName != "" {
		cmap, err := colormap.ByName(cmapName)
		if err != nil {
			return err
		}
		opts.Colormap = cmap
	}

	v, err := viewer.New(rec.src, opts)
	if err != nil {
		return err
	}

	logOnlyToFile()
	if viewWindow {
		err = window.Run(ctx, v, window.Options{Title: "rawview - " + rec.title})
	} else {
		err = ui.Run(ctx, v, rec.title)
	}
	if err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
