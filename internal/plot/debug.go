package plot

import (
	"math"
	"math/rand/v2"

	"github.com/mfulz/plotgeist/protocol"
)

// DebugPoints is the size of the spiral drawn for a debug command.
const DebugPoints = 50000

// DebugCommand builds a points command describing a noisy three-turn spiral
// of n points cycling through all colors. The same seed yields the same
// points.
func DebugCommand(n int, seed uint64) *protocol.Command {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	noise := func(r float64) float64 { return (rng.Float64()*2 - 1) * r }

	x := make([]float32, n)
	y := make([]float32, n)
	z := make([]float32, n)
	colors := make([]int32, n)

	step := 6 * math.Pi / float64(n)
	rStep := 1.0 / float64(n)
	for i := 0; i < n; i++ {
		angle := float64(i) * step
		r := float64(i) * rStep
		x[i] = float32(r*math.Cos(angle) + noise(0.04))
		y[i] = float32(r + noise(0.2) - 0.5)
		z[i] = float32(r*math.Sin(angle) + noise(0.04))
		colors[i] = int32(i % len(Colors))
	}

	cmd := protocol.NewCommand()
	cmd.SetKind(protocol.KindPoints)
	cmd.SetFloatVector("x", x)
	cmd.SetFloatVector("y", y)
	cmd.SetFloatVector("z", z)
	cmd.SetFloatVector("size", []float32{1})
	cmd.SetIntVector("colors", colors)
	cmd.SetString("type", PointCube)
	return cmd
}
