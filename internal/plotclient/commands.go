package plotclient

import "github.com/mfulz/plotgeist/protocol"

func newCommand(target string, kind protocol.Kind) *protocol.Command {
	cmd := protocol.NewCommand()
	cmd.SetTarget(target)
	cmd.SetKind(kind)
	return cmd
}

// TitleCommand sets the main title of target.
func TitleCommand(target, title string) *protocol.Command {
	cmd := newCommand(target, protocol.KindTitle)
	cmd.SetString("mainTitle", title)
	return cmd
}

// AxisLabelsCommand sets the three axis titles of target.
func AxisLabelsCommand(target, x, y, z string) *protocol.Command {
	cmd := newCommand(target, protocol.KindAxisLabels)
	cmd.SetString("xAxisTitle", x)
	cmd.SetString("yAxisTitle", y)
	cmd.SetString("zAxisTitle", z)
	return cmd
}

func ClearCommand(target string) *protocol.Command {
	return newCommand(target, protocol.KindClear)
}

func DebugCommand(target string) *protocol.Command {
	return newCommand(target, protocol.KindDebug)
}

// Points describes a batch of points for PointsCommand. Colors, Size and
// Type are optional.
type Points struct {
	X, Y, Z []float32
	Colors  []int32
	Size    float32
	Type    string
}

// PointsCommand builds a points command for target.
func PointsCommand(target string, p Points) *protocol.Command {
	cmd := newCommand(target, protocol.KindPoints)
	cmd.SetFloatVector("x", p.X)
	cmd.SetFloatVector("y", p.Y)
	cmd.SetFloatVector("z", p.Z)
	if p.Colors != nil {
		cmd.SetIntVector("colors", p.Colors)
	}
	if p.Size > 0 {
		cmd.SetFloatVector("size", []float32{p.Size})
	}
	if p.Type != "" {
		cmd.SetString("type", p.Type)
	}
	return cmd
}
