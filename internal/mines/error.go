package mines

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("point out of bounds")

// ConfigurationError reports a board that cannot be built or mined as asked.
// Nothing is mutated when it is returned.
type ConfigurationError struct {
	Width, Height, MineCount int
	Candidates               int
	message                  string
}

// [ConfigurationError] implements [error]
func (e *ConfigurationError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf(
		"too many mines for a %dx%d board: %d mines, %d candidate cells",
		e.Width, e.Height, e.MineCount, e.Candidates,
	)
}
