package cmd

import (
	"fmt"

	"github.com/mfulz/plotgeist/internal/plotclient"
	"github.com/spf13/cobra"
)

var (
	pointsX      []float32
	pointsY      []float32
	pointsZ      []float32
	pointsColors []int32
	pointsSize   float32
	pointsType   string
)

var titleCmd = &cobra.Command{
	Use:   "title <text>",
	Short: "Set the main title of a plot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, plotclient.TitleCommand(target, args[0]))
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels <x> <y> <z>",
	Short: "Set the axis titles of a plot",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, plotclient.AxisLabelsCommand(target, args[0], args[1], args[2]))
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset title, labels and points of a plot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, plotclient.ClearCommand(target))
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Draw the debug spiral",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, plotclient.DebugCommand(target))
	},
}

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Add a batch of points",
	Example: `  plotctl points -t Plot1 --x 1,2,3 --y 0,1,0 --z 0,0,1 --colors 0,1,2 --type cube
  plotctl points --x 0.5 --y 0.5 --z 0.5 --size 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := len(pointsX)
		if n == 0 || len(pointsY) != n || len(pointsZ) != n {
			return fmt.Errorf("--x, --y and --z need the same, non-zero number of values (got %d, %d, %d)",
				len(pointsX), len(pointsY), len(pointsZ))
		}
		if cmd.Flags().Changed("colors") && len(pointsColors) != n {
			return fmt.Errorf("--colors needs %d values, got %d", n, len(pointsColors))
		}

		return send(cmd, plotclient.PointsCommand(target, plotclient.Points{
			X:      pointsX,
			Y:      pointsY,
			Z:      pointsZ,
			Colors: pointsColors,
			Size:   pointsSize,
			Type:   pointsType,
		}))
	},
}

func init() {
	f := pointsCmd.Flags()
	f.Float32SliceVar(&pointsX, "x", nil, "x coordinates")
	f.Float32SliceVar(&pointsY, "y", nil, "y coordinates")
	f.Float32SliceVar(&pointsZ, "z", nil, "z coordinates")
	f.Int32SliceVar(&pointsColors, "colors", nil, "color index per point (0-9)")
	f.Float32Var(&pointsSize, "size", 1, "point size")
	f.StringVar(&pointsType, "type", "sphere", "point type (sphere or cube)")
}
