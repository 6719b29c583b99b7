package plotclient

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mfulz/plotgeist/protocol"
	"gopkg.in/yaml.v3"
)

// CommandFile is the YAML form of one command. A file may hold several
// documents separated by "---"; they are sent in order.
//
//	target: Plot1
//	kind: points
//	floats:
//	  x: [1, 2, 3]
//	  y: [0, 0, 0]
//	  z: [0, 1, 0]
//	ints:
//	  colors: [0, 1, 2]
//	strings:
//	  type: cube
type CommandFile struct {
	Target  string               `yaml:"target"`
	Kind    string               `yaml:"kind"`
	Floats  map[string][]float32 `yaml:"floats,omitempty"`
	Ints    map[string][]int32   `yaml:"ints,omitempty"`
	Strings map[string]string    `yaml:"strings,omitempty"`
}

func (f CommandFile) empty() bool {
	return f.Target == "" && f.Kind == "" && len(f.Floats) == 0 && len(f.Ints) == 0 && len(f.Strings) == 0
}

// Command converts the file form into a Command.
func (f CommandFile) Command() (*protocol.Command, error) {
	if f.Target == "" {
		return nil, errors.New("command file: target is required")
	}
	kind, err := protocol.ParseKind(f.Kind)
	if err != nil {
		return nil, fmt.Errorf("command file: %w", err)
	}

	cmd := newCommand(f.Target, kind)
	for name, v := range f.Floats {
		cmd.SetFloatVector(name, v)
	}
	for name, v := range f.Ints {
		cmd.SetIntVector(name, v)
	}
	for name, s := range f.Strings {
		cmd.SetString(name, s)
	}
	return cmd, nil
}

// FileFromCommand returns the file form of cmd.
func FileFromCommand(cmd *protocol.Command) CommandFile {
	f := CommandFile{
		Target: cmd.Target(),
		Kind:   cmd.Kind().String(),
	}
	for _, name := range cmd.FloatVectorNames() {
		if f.Floats == nil {
			f.Floats = make(map[string][]float32)
		}
		f.Floats[name], _ = cmd.FloatVector(name)
	}
	for _, name := range cmd.IntVectorNames() {
		if f.Ints == nil {
			f.Ints = make(map[string][]int32)
		}
		f.Ints[name], _ = cmd.IntVector(name)
	}
	for _, name := range cmd.StringNames() {
		if f.Strings == nil {
			f.Strings = make(map[string]string)
		}
		f.Strings[name], _ = cmd.String(name)
	}
	return f
}

// ParseCommands reads every YAML document from r.
func ParseCommands(r io.Reader) ([]*protocol.Command, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cmds []*protocol.Command
	for doc := 1; ; doc++ {
		var f CommandFile
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		if f.empty() {
			continue
		}
		cmd, err := f.Command()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		cmds = append(cmds, cmd)
	}

	if len(cmds) == 0 {
		return nil, errors.New("command file: no commands found")
	}
	return cmds, nil
}

// LoadCommands reads the commands of a YAML file. "-" reads stdin.
func LoadCommands(path string) ([]*protocol.Command, error) {
	if path == "-" {
		return ParseCommands(os.Stdin)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open command file: %w", err)
	}
	defer fh.Close()

	cmds, err := ParseCommands(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cmds, nil
}
