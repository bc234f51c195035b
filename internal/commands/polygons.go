// ABOUTME: Polygons command
// ABOUTME: Renders a static polygon map from raw arrays to PNG
package commands

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/rawview/pkg/colormap"
	"github.com/Resonate-Protocol/rawview/pkg/polygon"
)

var (
	polyPoints  string
	polyLengths string
	polyOutput  string
	polySeed    uint64
	polyWidth   int
	polyHeight  int
	polyCmap    string
)

var polygonsCmd = &cobra.Command{
	Use:   "polygons",
	Short: "Render a static polygon map to PNG",
	Long: `Render polygons read from raw arrays.

--points holds little-endian float64 pairs, --lengths little-endian uint32
vertex counts per polygon. Each polygon gets a random colour.`,
	RunE: runPolygons,
}

func init() {
	polygonsCmd.Flags().StringVar(&polyPoints, "points", "", "float64 pair file (required)")
	polygonsCmd.Flags().StringVar(&polyLengths, "lengths", "", "uint32 polygon length file (required)")
	polygonsCmd.Flags().StringVarP(&polyOutput, "output", "o", "polygons.png", "output PNG")
	polygonsCmd.Flags().Uint64Var(&polySeed, "seed", 0, "random seed for polygon colours")
	polygonsCmd.Flags().IntVar(&polyWidth, "width", 1024, "image width")
	polygonsCmd.Flags().IntVar(&polyHeight, "height", 768, "image height")
	polygonsCmd.Flags().StringVar(&polyCmap, "cmap", "viridis", "colormap")
	_ = polygonsCmd.MarkFlagRequired("points")
	_ = polygonsCmd.MarkFlagRequired("lengths")
	rootCmd.AddCommand(polygonsCmd)
}

func runPolygons(cmd *cobra.Command, args []string) error {
	points, err := polygon.ReadPoints(polyPoints)
	if err != nil {
		return err
	}
	lengths, err := polygon.ReadLengths(polyLengths)
	if err != nil {
		return err
	}
	cmap, err := colormap.ByName(polyCmap)
	if err != nil {
		return err
	}

	p, err := polygon.Build(points, lengths, polygon.Options{
		Colormap: cmap,
		Rand:     rand.New(rand.NewPCG(polySeed, polySeed)),
	})
	if err != nil {
		return err
	}

	r := polygon.NewRaster(polyWidth, polyHeight)
	if err := polygon.Upload(r, p); err != nil {
		return err
	}
	if err := r.SavePNG(polyOutput); err != nil {
		return err
	}

	fmt.Printf("Wrote %d polygons (%d points) to %s\n", len(lengths), len(points), polyOutput)
	return nil
}
