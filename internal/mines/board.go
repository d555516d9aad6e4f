package mines

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Board holds the whole game field. It is not safe for concurrent use; every
// call is expected to come from one goroutine at a time.
type Board struct {
	width, height int
	mineCount     int
	cells         []Cell
	generated     bool
}

func NewBoard(width, height, mineCount int) (*Board, error) {
	params := GameParams{width, height, mineCount}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &Board{
		width:     width,
		height:    height,
		mineCount: mineCount,
		cells:     make([]Cell, width*height),
	}
	return b, nil
}

func NewBoardFromParams(p GameParams) (*Board, error) {
	return NewBoard(p.Unpack())
}

func (b *Board) Width() int      { return b.width }
func (b *Board) Height() int     { return b.height }
func (b *Board) MineCount() int  { return b.mineCount }
func (b *Board) Generated() bool { return b.generated }

func (b *Board) Params() GameParams {
	return GameParams{b.width, b.height, b.mineCount}
}

// Cell returns a copy of the cell at x:y.
func (b *Board) Cell(x, y int) (Cell, bool) {
	if !b.InBounds(x, y) {
		return Cell{}, false
	}
	return b.cells[b.Index(x, y)], true
}

func (b *Board) State(x, y int) CellState {
	c, _ := b.Cell(x, y)
	return c.State
}

// IsMine is only meaningful for rendering after a reveal or a loss.
func (b *Board) IsMine(x, y int) bool {
	c, _ := b.Cell(x, y)
	return c.Mine
}

func (b *Board) AdjacentMines(x, y int) int {
	c, _ := b.Cell(x, y)
	return c.Adjacent
}

// Open generates the board around x:y if that has not happened yet and then
// reveals x:y.
func (b *Board) Open(x, y int, opts ...GenerateOption) (changed, hitMine bool, err error) {
	if err := b.Generate(x, y, opts...); err != nil {
		return false, false, err
	}
	changed, hitMine = b.Reveal(x, y)
	return changed, hitMine, nil
}

type boardGob struct {
	Width, Height, MineCount int
	Cells                    []Cell
	Generated                bool
}

// check rejects snapshots that no sequence of moves could have produced.
func (g *boardGob) check() error {
	fail := func(format string, args ...any) error {
		return &ConfigurationError{
			Width: g.Width, Height: g.Height, MineCount: g.MineCount,
			message: "encoded board: " + fmt.Sprintf(format, args...),
		}
	}
	if len(g.Cells) != g.Width*g.Height {
		return fail("%d cells, want %d", len(g.Cells), g.Width*g.Height)
	}
	mined := 0
	for i, c := range g.Cells {
		if c.State > Flagged {
			return fail("cell %d has state %d", i, c.State)
		}
		if c.Adjacent < 0 || c.Adjacent > 8 {
			return fail("cell %d has %d adjacent mines", i, c.Adjacent)
		}
		if c.Mine {
			mined++
		}
		if !g.Generated && (c.Mine || c.State == Revealed) {
			return fail("cell %d is mined or revealed before generation", i)
		}
	}
	if g.Generated && mined != g.MineCount {
		return fail("%d mined cells, want %d", mined, g.MineCount)
	}
	return nil
}

// [Board] implements [gob.GobEncoder]
func (b *Board) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(boardGob{
		b.width, b.height, b.mineCount, b.cells, b.generated,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// [Board] implements [gob.GobDecoder]
func (b *Board) GobDecode(data []byte) error {
	var g boardGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	params := GameParams{g.Width, g.Height, g.MineCount}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := g.check(); err != nil {
		return err
	}
	b.width, b.height, b.mineCount = g.Width, g.Height, g.MineCount
	b.cells, b.generated = g.Cells, g.Generated
	return nil
}

func (b *Board) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeBoard(buf []byte) (*Board, error) {
	var b Board
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}
