package mines

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type CellState uint8

const (
	Hidden CellState = iota
	Revealed
	Flagged
)

func (s CellState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Flagged:
		return "flagged"
	default:
		return "CellState(" + strconv.Itoa(int(s)) + ")"
	}
}

// Cell is a copy of a single board square. Adjacent is meaningless for mines.
type Cell struct {
	Mine     bool
	Adjacent int
	State    CellState
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.X, p.Y)
}

// Index maps in-bounds coordinates to the row-major cell index.
func (b *Board) Index(x, y int) int {
	return y*b.width + x
}

func (b *Board) point(i int) Point {
	return Point{i % b.width, i / b.width}
}

func (b *Board) InBounds(x, y int) bool {
	return 0 <= x && x < b.width && 0 <= y && y < b.height
}

// Neighbors yields the in-bounds Moore neighbourhood of x:y, rows first.
func (b *Board) Neighbors(x, y int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if !b.InBounds(nx, ny) {
					continue
				}
				if !yield(Point{nx, ny}) {
					return
				}
			}
		}
	}
}

func (b *Board) neighborIndices(i int) iter.Seq[int] {
	p := b.point(i)
	return func(yield func(int) bool) {
		for n := range b.Neighbors(p.X, p.Y) {
			if !yield(b.Index(n.X, n.Y)) {
				return
			}
		}
	}
}

// Reset clears every cell and forgets the mine layout.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Cell{}
	}
	b.generated = false
}

// Square is what a player may know about a cell.
type Square int8

const (
	Unknown Square = -2
	Flag    Square = -1
	// 0 to 8 mean the square is open and has a surrounding mine count.
	Mine Square = 64
)

func (s Square) String() string {
	switch {
	case s == Unknown:
		return " "
	case s == Flag:
		return "*"
	case s == Mine:
		return "X"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

type Grid []Square

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			fmt.Fprint(&b, g[y*width+x].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

// PlayerGrid masks the board so that hidden cells carry no mine information.
func (b *Board) PlayerGrid() Grid {
	grid := make(Grid, len(b.cells))
	for i, c := range b.cells {
		switch {
		case c.State == Flagged:
			grid[i] = Flag
		case c.State == Hidden:
			grid[i] = Unknown
		case c.Mine:
			grid[i] = Mine
		default:
			grid[i] = Square(c.Adjacent)
		}
	}
	return grid
}
