// Package plot keeps the per-target state a renderer draws: the title, the
// axis labels and batches of colored points. Plots are fed by the dispatcher
// and can be read concurrently.
package plot

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/protocol"
	"go.uber.org/zap"
)

// ErrBadPoints is returned when a points command cannot be turned into a batch.
var ErrBadPoints = errors.New("plot: inconsistent point data")

// Colors maps wire color indices to color names.
var Colors = [...]string{
	"red",
	"green",
	"blue",
	"orange",
	"turquoise",
	"pink",
	"yellow",
	"lightblue",
	"violet",
	"brown",
}

// Point types understood by renderers.
const (
	PointSphere = "sphere"
	PointCube   = "cube"
)

// pointScale converts the "size" parameter into model units.
const pointScale = 1 / 15.0

// ColorName returns the name for a color index; unknown indices map to the
// first color.
func ColorName(idx int32) string {
	if idx < 0 || int(idx) >= len(Colors) {
		return Colors[0]
	}
	return Colors[idx]
}

type Point struct {
	X, Y, Z float32
}

// Batch is the result of one points command.
type Batch struct {
	PointType string
	PointSize float32
	Scale     float32            // model scale fitting the batch into a unit cube
	Groups    map[string][]Point // keyed by color name
}

// Len returns the number of points in the batch.
func (b Batch) Len() int {
	n := 0
	for _, pts := range b.Groups {
		n += len(pts)
	}
	return n
}

type AxisLabels struct {
	X, Y, Z string
}

// State is a snapshot of a Plot.
type State struct {
	Target  string
	Title   string
	Labels  AxisLabels
	Batches []Batch
	Updated time.Time
}

// PointCount returns the number of points across all batches.
func (s State) PointCount() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Len()
	}
	return n
}

// Plot is the state of one target.
type Plot struct {
	target string
	log    *zap.SugaredLogger

	mu    sync.RWMutex
	state State
	seed  uint64
}

// New returns a cleared plot for target.
func New(target string, log *zap.SugaredLogger) *Plot {
	p := &Plot{
		target: target,
		log:    logging.OrNop(log).With("target", target),
		seed:   uint64(time.Now().UnixNano()),
	}
	p.reset()
	return p
}

func (p *Plot) Target() string { return p.target }

// Handle applies cmd to the plot. It has the dispatcher's handler signature.
func (p *Plot) Handle(cmd *protocol.Command) {
	p.log.Debugf("[plot] Got %s command", cmd.Kind())

	switch cmd.Kind() {
	case protocol.KindTitle:
		title, _ := cmd.String("mainTitle")
		p.update(func(s *State) { s.Title = title })

	case protocol.KindAxisLabels:
		x, _ := cmd.String("xAxisTitle")
		y, _ := cmd.String("yAxisTitle")
		z, _ := cmd.String("zAxisTitle")
		p.update(func(s *State) { s.Labels = AxisLabels{X: x, Y: y, Z: z} })

	case protocol.KindPoints:
		p.addPoints(cmd)

	case protocol.KindDebug:
		p.mu.Lock()
		p.seed++
		seed := p.seed
		p.mu.Unlock()
		p.addPoints(DebugCommand(DebugPoints, seed))

	case protocol.KindClear:
		p.reset()
		p.log.Info("[plot] Cleared")

	default:
		p.log.Debugf("[plot] Ignoring %s command", cmd.Kind())
	}
}

// State returns a deep copy of the current state.
func (p *Plot) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := p.state
	out.Batches = make([]Batch, len(p.state.Batches))
	for i, b := range p.state.Batches {
		groups := make(map[string][]Point, len(b.Groups))
		for color, pts := range b.Groups {
			groups[color] = append([]Point(nil), pts...)
		}
		b.Groups = groups
		out.Batches[i] = b
	}
	return out
}

func (p *Plot) addPoints(cmd *protocol.Command) {
	batch, err := BuildBatch(cmd)
	if err != nil {
		p.log.Warnw("[plot] Dropping points command", "error", err)
		return
	}
	p.update(func(s *State) { s.Batches = append(s.Batches, batch) })
	p.log.Infow("[plot] Added points",
		"points", batch.Len(), "colors", len(batch.Groups), "type", batch.PointType, "scale", batch.Scale)
}

func (p *Plot) reset() {
	p.update(func(s *State) {
		*s = State{
			Target: p.target,
			Title:  p.target,
			Labels: AxisLabels{X: "X", Y: "Y", Z: "Z"},
		}
	})
}

func (p *Plot) update(fn func(s *State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
	p.state.Updated = time.Now()
}

// BuildBatch turns a points command into a Batch.
//
// The float vectors "x", "y" and "z" hold the coordinates. The int vector
// "colors" selects one color per point and also fixes the number of points;
// without it every point of "x" is drawn in the first color. "size" (first
// element, default 1) and "type" (default sphere) are optional.
func BuildBatch(cmd *protocol.Command) (Batch, error) {
	var coords [3][]float32
	for i, name := range []string{"x", "y", "z"} {
		v, ok := cmd.FloatVector(name)
		if !ok {
			return Batch{}, fmt.Errorf("%w: missing %q vector", ErrBadPoints, name)
		}
		coords[i] = v
	}

	colors, hasColors := cmd.IntVector("colors")
	n := len(coords[0])
	if hasColors {
		n = len(colors)
	}
	for i, name := range []string{"x", "y", "z"} {
		if len(coords[i]) < n {
			return Batch{}, fmt.Errorf("%w: %q has %d values, need %d", ErrBadPoints, name, len(coords[i]), n)
		}
	}

	size := float32(1)
	if v, ok := cmd.FloatVector("size"); ok && len(v) > 0 {
		size = v[0]
	}
	pointType := PointSphere
	if t, _ := cmd.String("type"); t == PointCube {
		pointType = PointCube
	}

	groups := make(map[string][]Point)
	var maxAbs float64
	for i := 0; i < n; i++ {
		var idx int32
		if hasColors {
			idx = colors[i]
		}
		pt := Point{X: coords[0][i], Y: coords[1][i], Z: coords[2][i]}
		for _, c := range []float32{pt.X, pt.Y, pt.Z} {
			maxAbs = math.Max(maxAbs, math.Abs(float64(c)))
		}
		color := ColorName(idx)
		groups[color] = append(groups[color], pt)
	}

	scale := float32(1)
	if denom := 2*maxAbs + pointScale*float64(size); denom > 0 {
		scale = float32(0.5 / denom)
	}

	return Batch{
		PointType: pointType,
		PointSize: size,
		Scale:     scale,
		Groups:    groups,
	}, nil
}
