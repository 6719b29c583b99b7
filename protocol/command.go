package protocol

import (
	"slices"

	"go.uber.org/zap"
)

// Command is one decoded plotting message: a kind, the target it is addressed
// to, and named float vectors, int vectors and strings. The three name spaces
// are independent of each other.
type Command struct {
	kind    Kind
	target  string
	floats  map[string][]float32
	ints    map[string][]int32
	strings map[string]string
}

// NewCommand returns an empty command addressed to DefaultTarget.
func NewCommand() *Command {
	return &Command{
		kind:    KindNone,
		target:  DefaultTarget,
		floats:  make(map[string][]float32),
		ints:    make(map[string][]int32),
		strings: make(map[string]string),
	}
}

func (c *Command) Kind() Kind     { return c.kind }
func (c *Command) Target() string { return c.target }

func (c *Command) SetKind(k Kind)          { c.kind = k }
func (c *Command) SetTarget(target string) { c.target = target }

// SetFloatVector stores v under name, replacing any previous value.
func (c *Command) SetFloatVector(name string, v []float32) {
	c.floats[name] = v
}

// SetIntVector stores v under name, replacing any previous value.
func (c *Command) SetIntVector(name string, v []int32) {
	c.ints[name] = v
}

// SetString stores s under name, replacing any previous value.
func (c *Command) SetString(name, s string) {
	c.strings[name] = s
}

// FloatVector returns the float vector stored under name.
func (c *Command) FloatVector(name string) ([]float32, bool) {
	v, ok := c.floats[name]
	return v, ok
}

// IntVector returns the int vector stored under name.
func (c *Command) IntVector(name string) ([]int32, bool) {
	v, ok := c.ints[name]
	return v, ok
}

// String returns the string stored under name.
func (c *Command) String(name string) (string, bool) {
	s, ok := c.strings[name]
	return s, ok
}

// FloatVectorLen returns the length of the named float vector, 0 if missing.
func (c *Command) FloatVectorLen(name string) int {
	return len(c.floats[name])
}

// IntVectorLen returns the length of the named int vector, 0 if missing.
func (c *Command) IntVectorLen(name string) int {
	return len(c.ints[name])
}

func (c *Command) FloatVectorNames() []string { return sortedKeys(c.floats) }
func (c *Command) IntVectorNames() []string   { return sortedKeys(c.ints) }
func (c *Command) StringNames() []string      { return sortedKeys(c.strings) }

// Clone returns a deep copy. No vector is shared with c afterwards.
func (c *Command) Clone() *Command {
	out := NewCommand()
	out.kind = c.kind
	out.target = c.target
	for k, v := range c.floats {
		out.floats[k] = slices.Clone(v)
	}
	for k, v := range c.ints {
		out.ints[k] = slices.Clone(v)
	}
	for k, v := range c.strings {
		out.strings[k] = v
	}
	return out
}

// Fields summarizes the command for structured logging.
func (c *Command) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("target", c.target),
		zap.Stringer("kind", c.kind),
	}
	for _, name := range c.FloatVectorNames() {
		fields = append(fields, zap.Int("float."+name, len(c.floats[name])))
	}
	for _, name := range c.IntVectorNames() {
		fields = append(fields, zap.Int("int."+name, len(c.ints[name])))
	}
	for _, name := range c.StringNames() {
		fields = append(fields, zap.String("str."+name, c.strings[name]))
	}
	return fields
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
