package mines

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func presetBoard(t *testing.T, rows, cols int, mines ...Coord) *Board {
	t.Helper()
	b, err := NewBoard(rows, cols)
	if err != nil {
		t.Fatalf("NewBoard err: %v", err)
	}
	for _, m := range mines {
		b.cells[b.index(m)] = MineMarker
	}
	b.mines = len(mines)
	b.placed = true
	b.recount()
	return b
}

func TestNewBoard_RejectsInvalidDimensions(t *testing.T) {
	cases := []struct {
		name       string
		rows, cols int
		field      string
	}{
		{"zero rows", 0, 4, "Rows"},
		{"negative rows", -2, 4, "Rows"},
		{"zero cols", 4, 0, "Cols"},
		{"cell count overflows", math.MaxInt/3 + 1, 3, "Rows"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBoard(tc.rows, tc.cols)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, cfgErr.Field)
			}
		})
	}
}

func TestNewBoard_StartsEmpty(t *testing.T) {
	b, err := NewBoard(3, 5)
	if err != nil {
		t.Fatalf("NewBoard err: %v", err)
	}
	if b.Placed() || b.MineCount() != 0 {
		t.Fatalf("expected empty board, placed=%v mines=%d", b.Placed(), b.MineCount())
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 5; c++ {
			if got := b.CountAt(Coord{r, c}); got != 0 {
				t.Fatalf("expected count 0 at (%d,%d), got %d", r, c, got)
			}
		}
	}
}

func TestPlaceMines_ExcludesTargetAndPlacesExactCount(t *testing.T) {
	configs := []struct{ rows, cols, mines int }{
		{4, 4, 3},
		{9, 9, 10},
		{2, 2, 3},
		{1, 2, 1},
		{5, 3, 0},
		{3, 7, 20},
	}
	for _, cfg := range configs {
		for seed := int64(1); seed <= 100; seed++ {
			rng := rand.New(rand.NewSource(seed))
			b, err := NewBoard(cfg.rows, cfg.cols)
			if err != nil {
				t.Fatalf("NewBoard err: %v", err)
			}
			exclude := Coord{Row: rng.Intn(cfg.rows), Col: rng.Intn(cfg.cols)}
			if err := b.PlaceMines(rng, exclude, cfg.mines); err != nil {
				t.Fatalf("PlaceMines %dx%d/%d err: %v", cfg.rows, cfg.cols, cfg.mines, err)
			}
			if b.IsMine(exclude) {
				t.Fatalf("excluded cell %s was mined (seed=%d)", exclude, seed)
			}
			if got := len(b.MineCoords()); got != cfg.mines {
				t.Fatalf("expected %d mines, got %d (seed=%d)", cfg.mines, got, seed)
			}
			if b.MineCount() != cfg.mines {
				t.Fatalf("MineCount mismatch: %d != %d", b.MineCount(), cfg.mines)
			}
		}
	}
}

func TestPlaceMines_RejectsCountBeforeSampling(t *testing.T) {
	for _, count := range []int{16, 17, -1} {
		b, _ := NewBoard(4, 4)
		err := b.PlaceMines(rand.New(rand.NewSource(1)), Coord{0, 0}, count)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("count=%d: expected ConfigError, got %v", count, err)
		}
		if b.Placed() {
			t.Fatalf("count=%d: board should stay empty after a rejected placement", count)
		}
	}
}

func TestPlaceMines_SecondCallIsInvalidState(t *testing.T) {
	b, _ := NewBoard(3, 3)
	rng := rand.New(rand.NewSource(7))
	if err := b.PlaceMines(rng, Coord{1, 1}, 2); err != nil {
		t.Fatalf("first PlaceMines err: %v", err)
	}
	err := b.PlaceMines(rng, Coord{1, 1}, 2)
	var stateErr InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestAdjacencyCountsMatchNeighbourhood(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		b, _ := NewBoard(8, 11)
		if err := b.PlaceMines(rng, Coord{4, 5}, 25); err != nil {
			t.Fatalf("PlaceMines err: %v", err)
		}
		for r := 0; r < 8; r++ {
			for c := 0; c < 11; c++ {
				at := Coord{r, c}
				if b.IsMine(at) {
					if b.CountAt(at) != MineMarker {
						t.Fatalf("mine at %s should report MineMarker", at)
					}
					continue
				}
				want := 0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						nb := Coord{r + dr, c + dc}
						if (dr != 0 || dc != 0) && b.Contains(nb) && b.IsMine(nb) {
							want++
						}
					}
				}
				if got := b.CountAt(at); got != want {
					t.Fatalf("seed=%d count at %s: got %d want %d", seed, at, got, want)
				}
			}
		}
	}
}

func TestNeighbors_ClippedRowMajor(t *testing.T) {
	b, _ := NewBoard(3, 4)
	corner := b.Neighbors(Coord{0, 0})
	want := []Coord{{0, 1}, {1, 0}, {1, 1}}
	if len(corner) != len(want) {
		t.Fatalf("corner neighbours: got %v want %v", corner, want)
	}
	for i := range want {
		if corner[i] != want[i] {
			t.Fatalf("corner neighbours: got %v want %v", corner, want)
		}
	}
	if n := len(b.Neighbors(Coord{0, 2})); n != 5 {
		t.Fatalf("edge cell: expected 5 neighbours, got %d", n)
	}
	if n := len(b.Neighbors(Coord{1, 1})); n != 8 {
		t.Fatalf("interior cell: expected 8 neighbours, got %d", n)
	}
}

func TestBoardAccessors_PanicOutOfBounds(t *testing.T) {
	b, _ := NewBoard(2, 2)
	checks := map[string]func(){
		"IsMine":    func() { b.IsMine(Coord{2, 0}) },
		"CountAt":   func() { b.CountAt(Coord{0, -1}) },
		"Neighbors": func() { b.Neighbors(Coord{5, 5}) },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for out-of-bounds coordinate")
				}
			}()
			fn()
		})
	}
}
