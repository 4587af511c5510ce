package mines

import (
	"fmt"
	"math"
)

type Config struct {
	Rows  int
	Cols  int
	Mines int

	// RNG seed (0 => time-based)
	Seed int64
}

// Cells is the number of cells on the board.
func (c Config) Cells() int {
	return c.Rows * c.Cols
}

// Validate checks dimensions and mine count. One cell must stay mine-free so
// the first reveal can always be safe.
func (c Config) Validate() error {
	return c.validate()
}

func (c Config) validate() error {
	if err := validateDims(c.Rows, c.Cols); err != nil {
		return err
	}
	return validateMineCount(c.Mines, c.Cells())
}

// validateDims also rejects grids whose cell count does not fit in an int.
func validateDims(rows, cols int) error {
	if rows <= 0 {
		return &ConfigError{Field: "Rows", Value: rows, Reason: "must be > 0"}
	}
	if cols <= 0 {
		return &ConfigError{Field: "Cols", Value: cols, Reason: "must be > 0"}
	}
	if rows > math.MaxInt/cols {
		return &ConfigError{Field: "Rows", Value: rows, Reason: fmt.Sprintf("rows*cols overflows with cols=%d", cols)}
	}
	return nil
}

func validateMineCount(mines, cells int) error {
	if mines < 0 {
		return &ConfigError{Field: "Mines", Value: mines, Reason: "must be >= 0"}
	}
	if mines >= cells {
		return &ConfigError{Field: "Mines", Value: mines, Reason: fmt.Sprintf("must be < %d (rows*cols)", cells)}
	}
	return nil
}
