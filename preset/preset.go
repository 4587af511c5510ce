// Package preset names board sizes. The built-in set can be extended or
// overridden from a YAML file:
//
//	presets:
//	  - name: hallway
//	    rows: 3
//	    cols: 20
//	    mines: 9
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sweeper-lite/mines"
)

type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Rows        int    `yaml:"rows" json:"rows"`
	Cols        int    `yaml:"cols" json:"cols"`
	Mines       int    `yaml:"mines" json:"mines"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Config returns the engine configuration for p with the given seed.
func (p Preset) Config(seed int64) mines.Config {
	return mines.Config{Rows: p.Rows, Cols: p.Cols, Mines: p.Mines, Seed: seed}
}

const DefaultName = "tiny"

var builtins = []Preset{
	{Name: "tiny", Rows: 4, Cols: 4, Mines: 3, Description: "4x4 with 3 mines, the training board"},
	{Name: "beginner", Rows: 9, Cols: 9, Mines: 10},
	{Name: "intermediate", Rows: 16, Cols: 16, Mines: 40},
	{Name: "expert", Rows: 16, Cols: 30, Mines: 99},
}

// Set is an ordered collection of presets keyed by name.
type Set struct {
	order  []string
	byName map[string]Preset
}

func Builtin() *Set {
	s := &Set{byName: make(map[string]Preset, len(builtins))}
	for _, p := range builtins {
		s.put(p)
	}
	return s
}

func (s *Set) put(p Preset) {
	if _, ok := s.byName[p.Name]; !ok {
		s.order = append(s.order, p.Name)
	}
	s.byName[p.Name] = p
}

func (s *Set) Get(name string) (Preset, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// All returns presets in definition order, built-ins first.
func (s *Set) All() []Preset {
	out := make([]Preset, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

type file struct {
	Presets []Preset `yaml:"presets"`
}

// Parse returns the built-ins merged with the presets in data. A preset whose
// name matches a built-in replaces it.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	s := Builtin()
	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: name is required", i)
		}
		if err := p.Config(0).Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		s.put(p)
	}
	return s, nil
}

// Load reads a preset file. An empty path yields the built-ins.
func Load(path string) (*Set, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(data)
}
