package mines

import "math/rand"

// Board owns the mine layout and the adjacency count of every cell.
// It starts empty and is populated once, by PlaceMines.
type Board struct {
	rows   int
	cols   int
	cells  []int8 // adjacency count, or MineMarker
	mines  int
	placed bool
}

// NewBoard returns an empty board: every count is zero and no mine is placed.
func NewBoard(rows, cols int) (*Board, error) {
	if err := validateDims(rows, cols); err != nil {
		return nil, err
	}
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]int8, rows*cols),
	}, nil
}

func (b *Board) Rows() int { return b.rows }

func (b *Board) Cols() int { return b.cols }

// MineCount is the number of mines placed so far (0 before PlaceMines).
func (b *Board) MineCount() int { return b.mines }

// Placed reports whether PlaceMines has run.
func (b *Board) Placed() bool { return b.placed }

func (b *Board) Contains(c Coord) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

// PlaceMines samples count distinct mined cells uniformly at random, never
// choosing exclude, then recomputes every adjacency count.
// The count is checked before sampling so the rejection loop always ends.
func (b *Board) PlaceMines(rng *rand.Rand, exclude Coord, count int) error {
	b.mustContain(exclude)
	if b.placed {
		return ErrInvalidState("mines already placed")
	}
	if err := validateMineCount(count, len(b.cells)); err != nil {
		return err
	}

	placed := 0
	for placed < count {
		c := Coord{Row: rng.Intn(b.rows), Col: rng.Intn(b.cols)}
		if c == exclude {
			continue
		}
		i := b.index(c)
		if b.cells[i] == MineMarker {
			continue
		}
		b.cells[i] = MineMarker
		placed++
	}
	b.mines = count
	b.placed = true
	b.recount()
	return nil
}

// recount fills in the clipped 8-neighbourhood mine count of each safe cell.
func (b *Board) recount() {
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			at := Coord{Row: r, Col: c}
			i := b.index(at)
			if b.cells[i] == MineMarker {
				continue
			}
			n := 0
			b.forEachNeighbor(at, func(nb Coord) {
				if b.cells[b.index(nb)] == MineMarker {
					n++
				}
			})
			b.cells[i] = int8(n)
		}
	}
}

func (b *Board) IsMine(c Coord) bool {
	b.mustContain(c)
	return b.cells[b.index(c)] == MineMarker
}

// CountAt returns the adjacency count of c, or MineMarker if c is mined.
func (b *Board) CountAt(c Coord) int {
	b.mustContain(c)
	return int(b.cells[b.index(c)])
}

// MineCoords lists mined cells in row-major order.
func (b *Board) MineCoords() []Coord {
	out := make([]Coord, 0, b.mines)
	for i, v := range b.cells {
		if v == MineMarker {
			out = append(out, b.coord(i))
		}
	}
	return out
}

// Neighbors returns the in-grid cells at Chebyshev distance 1 from c,
// row-major, without c itself.
func (b *Board) Neighbors(c Coord) []Coord {
	b.mustContain(c)
	out := make([]Coord, 0, 8)
	b.forEachNeighbor(c, func(nb Coord) {
		out = append(out, nb)
	})
	return out
}

func (b *Board) forEachNeighbor(c Coord, fn func(Coord)) {
	for r := max(0, c.Row-1); r <= min(b.rows-1, c.Row+1); r++ {
		for col := max(0, c.Col-1); col <= min(b.cols-1, c.Col+1); col++ {
			if r == c.Row && col == c.Col {
				continue
			}
			fn(Coord{Row: r, Col: col})
		}
	}
}

func (b *Board) index(c Coord) int {
	return c.Row*b.cols + c.Col
}

func (b *Board) coord(i int) Coord {
	return Coord{Row: i / b.cols, Col: i % b.cols}
}

func (b *Board) mustContain(c Coord) {
	if !b.Contains(c) {
		outOfBounds(c, b.rows, b.cols)
	}
}
