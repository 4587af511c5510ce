package mines

import "fmt"

// ConfigError reports an invalid board or game configuration.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s=%d %s", e.Field, e.Value, e.Reason)
}

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }

// outOfBounds is raised for coordinates outside the grid. It is a caller bug,
// not a game condition, so it panics instead of returning an error.
func outOfBounds(c Coord, rows, cols int) {
	panic(fmt.Sprintf("mines: coordinate %s outside %dx%d board", c, rows, cols))
}
