package mines

import (
	"fmt"
	"strings"
)

// MaxCells bounds the board area so that width*height cannot overflow.
const MaxCells = 1 << 20

type GameParams struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	MineCount int `json:"mine_count"`
}

func (p GameParams) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

func (p GameParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return &ConfigurationError{
			Width: p.Width, Height: p.Height, MineCount: p.MineCount,
			message: fmt.Sprintf("invalid board size %dx%d", p.Width, p.Height),
		}
	}
	if p.Width > MaxCells/p.Height {
		return &ConfigurationError{
			Width: p.Width, Height: p.Height, MineCount: p.MineCount,
			message: fmt.Sprintf("board %dx%d exceeds %d cells", p.Width, p.Height, MaxCells),
		}
	}
	if p.MineCount < 0 {
		return &ConfigurationError{
			Width: p.Width, Height: p.Height, MineCount: p.MineCount,
			message: fmt.Sprintf("invalid mine count %d", p.MineCount),
		}
	}
	return nil
}

func (p GameParams) ValidatePoint(x, y int) bool {
	return 0 <= x && x < p.Width && 0 <= y && y < p.Height
}

// SafeZoneSize is the number of cells kept clear of mines when the first click
// lands on x:y.
func (p GameParams) SafeZoneSize(x, y int) int {
	n := 0
	for yy := y - 1; yy <= y+1; yy++ {
		for xx := x - 1; xx <= x+1; xx++ {
			if p.ValidatePoint(xx, yy) {
				n++
			}
		}
	}
	return n
}

// MaxMines is the largest mine count that can be generated wherever the
// first click lands.
func (p GameParams) MaxMines() int {
	return max(0, p.Width*p.Height-9)
}

func (p GameParams) String() string {
	return fmt.Sprintf("%dx%d:%d", p.Width, p.Height, p.MineCount)
}

func ParseParams(s string) (*GameParams, error) {
	p := &GameParams{}
	fields := strings.NewReplacer("x", " ", ":", " ").Replace(s)
	n, err := fmt.Sscanf(fields, "%d %d %d", &p.Width, &p.Height, &p.MineCount)
	if n != 3 || err != nil {
		return nil, fmt.Errorf(`invalid game params %q (n = %d, err = %w)`, s, n, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
