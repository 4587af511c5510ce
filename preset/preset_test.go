package preset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"sweeper-lite/mines"
)

func TestBuiltin(t *testing.T) {
	s := Builtin()
	if !reflect.DeepEqual(s.Names(), []string{"tiny", "beginner", "intermediate", "expert"}) {
		t.Fatalf("unexpected built-ins %v", s.Names())
	}
	tiny, ok := s.Get(DefaultName)
	if !ok || tiny.Rows != 4 || tiny.Cols != 4 || tiny.Mines != 3 {
		t.Fatalf("unexpected default preset %+v", tiny)
	}
	for _, p := range s.All() {
		if err := p.Config(1).Validate(); err != nil {
			t.Fatalf("built-in %s invalid: %v", p.Name, err)
		}
	}
}

func TestParse_MergesAndOverrides(t *testing.T) {
	data := []byte(`
presets:
  - name: hallway
    rows: 3
    cols: 20
    mines: 9
  - name: tiny
    rows: 5
    cols: 5
    mines: 4
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	names := s.Names()
	if names[0] != "tiny" || names[len(names)-1] != "hallway" {
		t.Fatalf("overrides keep their slot, new presets go last: %v", names)
	}
	tiny, _ := s.Get("tiny")
	if tiny.Rows != 5 || tiny.Mines != 4 {
		t.Fatalf("expected overridden tiny, got %+v", tiny)
	}
	hall, ok := s.Get("hallway")
	if !ok || hall.Config(7) != (mines.Config{Rows: 3, Cols: 20, Mines: 9, Seed: 7}) {
		t.Fatalf("unexpected hallway %+v", hall)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no name":  "presets:\n  - rows: 3\n    cols: 3\n    mines: 1\n",
		"too many": "presets:\n  - name: full\n    rows: 2\n    cols: 2\n    mines: 4\n",
		"bad yaml": "presets: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := Parse([]byte("presets:\n  - name: full\n    rows: 2\n    cols: 2\n    mines: 4\n"))
	var cfgErr *mines.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "Mines" {
		t.Fatalf("expected wrapped ConfigError, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	s, err := Load("")
	if err != nil || len(s.All()) != 4 {
		t.Fatalf("empty path should give built-ins, err=%v", err)
	}
	path := filepath.Join(t.TempDir(), "presets.yaml")
	os.WriteFile(path, []byte("presets:\n  - name: strip\n    rows: 1\n    cols: 10\n    mines: 2\n"), 0o644)
	s, err = Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if _, ok := s.Get("strip"); !ok {
		t.Fatalf("expected strip preset")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
