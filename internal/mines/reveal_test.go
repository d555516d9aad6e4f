package mines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutBoard builds a generated board with mines exactly at the given points.
func layoutBoard(t *testing.T, width, height int, mines ...Point) *Board {
	t.Helper()
	b, err := NewBoard(width, height, len(mines))
	require.NoError(t, err)
	for _, m := range mines {
		require.True(t, b.InBounds(m.X, m.Y))
		b.cells[b.Index(m.X, m.Y)].Mine = true
	}
	b.computeAdjacency()
	b.generated = true
	return b
}

func states(b *Board) map[CellState]int {
	counts := make(map[CellState]int)
	for _, c := range b.cells {
		counts[c.State]++
	}
	return counts
}

func TestRevealEmptyBoardFloodsEverything(t *testing.T) {
	b, err := NewBoard(3, 3, 0)
	require.NoError(t, err)
	require.NoError(t, b.Generate(1, 1))

	changed, hitMine := b.Reveal(1, 1)

	assert.True(t, changed)
	assert.False(t, hitMine)
	assert.Equal(t, 9, states(b)[Revealed])
	assert.True(t, b.CheckWin())
}

func TestRevealBeforeGenerate(t *testing.T) {
	b, err := NewBoard(3, 3, 0)
	require.NoError(t, err)

	changed, hitMine := b.Reveal(1, 1)

	assert.False(t, changed)
	assert.False(t, hitMine)
	assert.Equal(t, 9, states(b)[Hidden])
}

func TestOpenGeneratesLazily(t *testing.T) {
	b, err := NewBoard(9, 9, 10)
	require.NoError(t, err)

	changed, hitMine, err := b.Open(4, 4, WithSeed(99))
	require.NoError(t, err)

	assert.True(t, changed)
	assert.False(t, hitMine)
	assert.True(t, b.Generated())
	assert.Equal(t, Revealed, b.State(4, 4))
	assert.Equal(t, 0, b.AdjacentMines(4, 4))

	_, _, err = mustBoard(t, 2, 2, 1).Open(0, 0)
	var ce *ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func mustBoard(t *testing.T, w, h, m int) *Board {
	t.Helper()
	b, err := NewBoard(w, h, m)
	require.NoError(t, err)
	return b
}

func TestRevealStopsAtNumbers(t *testing.T) {
	// a wall of mines down the middle column
	b := layoutBoard(t, 5, 3, Point{2, 0}, Point{2, 1}, Point{2, 2})

	changed, hitMine := b.Reveal(0, 0)
	require.True(t, changed)
	require.False(t, hitMine)

	for y := range 3 {
		assert.Equal(t, Revealed, b.State(0, y))
		assert.Equal(t, Revealed, b.State(1, y))
		assert.Equal(t, Hidden, b.State(2, y))
		assert.Equal(t, Hidden, b.State(3, y))
		assert.Equal(t, Hidden, b.State(4, y))
	}
	assert.Equal(t, 2, b.AdjacentMines(1, 0))
	assert.Equal(t, 3, b.AdjacentMines(1, 1))
	assert.False(t, b.CheckWin())

	changed, hitMine = b.Reveal(4, 1)
	assert.True(t, changed)
	assert.False(t, hitMine)
	assert.True(t, b.CheckWin())
}

func TestRevealNeverOpensMinesOrFlags(t *testing.T) {
	b := layoutBoard(t, 4, 4, Point{3, 3})
	require.True(t, b.ToggleFlag(0, 3))

	b.Reveal(0, 0)

	assert.Equal(t, Hidden, b.State(3, 3))
	assert.Equal(t, Flagged, b.State(0, 3))
	for i, c := range b.cells {
		if c.Mine {
			assert.NotEqual(t, Revealed, c.State, "mine %v revealed", b.point(i))
		}
	}
	assert.Equal(t, 14, states(b)[Revealed])
	assert.False(t, b.CheckWin())

	require.True(t, b.ToggleFlag(0, 3))
	changed, _ := b.Reveal(0, 3)
	assert.True(t, changed)
	assert.True(t, b.CheckWin())
}

func TestRevealMine(t *testing.T) {
	b := layoutBoard(t, 3, 3, Point{2, 2})

	changed, hitMine := b.Reveal(2, 2)
	assert.True(t, changed)
	assert.True(t, hitMine)
	assert.Equal(t, Revealed, b.State(2, 2))
	assert.Equal(t, 1, states(b)[Revealed])

	changed, hitMine = b.Reveal(2, 2)
	assert.False(t, changed)
	assert.False(t, hitMine)
}

func TestRevealNoops(t *testing.T) {
	b := layoutBoard(t, 3, 3, Point{2, 2})
	require.True(t, b.ToggleFlag(0, 0))

	tests := []struct {
		name string
		x, y int
	}{
		{"flagged", 0, 0},
		{"left of board", -1, 0},
		{"below board", 0, 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			changed, hitMine := b.Reveal(test.x, test.y)
			assert.False(t, changed)
			assert.False(t, hitMine)
		})
	}

	b.Reveal(1, 1)
	changed, _ := b.Reveal(1, 1)
	assert.False(t, changed)
}

func TestChord(t *testing.T) {
	t.Run("correct flag opens the rest", func(t *testing.T) {
		b := layoutBoard(t, 4, 4, Point{3, 3})
		b.Reveal(2, 2)
		require.Equal(t, 1, states(b)[Revealed])
		require.True(t, b.ToggleFlag(3, 3))

		changed, hitMine := b.Chord(2, 2)
		assert.True(t, changed)
		assert.False(t, hitMine)
		assert.True(t, b.CheckWin())
	})

	t.Run("wrong flag hits the mine", func(t *testing.T) {
		b := layoutBoard(t, 4, 4, Point{3, 3})
		b.Reveal(2, 2)
		require.True(t, b.ToggleFlag(1, 1))

		changed, hitMine := b.Chord(2, 2)
		assert.True(t, changed)
		assert.True(t, hitMine)
	})

	t.Run("flag count mismatch", func(t *testing.T) {
		b := layoutBoard(t, 4, 4, Point{3, 3})
		b.Reveal(2, 2)

		changed, hitMine := b.Chord(2, 2)
		assert.False(t, changed)
		assert.False(t, hitMine)
		assert.Equal(t, 1, states(b)[Revealed])
	})

	t.Run("hidden cell", func(t *testing.T) {
		b := layoutBoard(t, 4, 4, Point{3, 3})
		changed, _ := b.Chord(2, 2)
		assert.False(t, changed)
	})
}

func TestRevealAllMines(t *testing.T) {
	b := layoutBoard(t, 5, 3, Point{2, 0}, Point{2, 1}, Point{2, 2})
	require.True(t, b.ToggleFlag(2, 0))

	b.RevealAllMines()

	for y := range 3 {
		assert.Equal(t, Revealed, b.State(2, y))
	}
	assert.Equal(t, 3, states(b)[Revealed])
}

func TestMinesByDistance(t *testing.T) {
	b := layoutBoard(t, 5, 3, Point{2, 0}, Point{2, 1}, Point{2, 2})

	assert.Equal(t,
		[]Point{{2, 1}, {2, 0}, {2, 2}},
		b.MinesByDistance(0, 1),
	)
	assert.Equal(t,
		[]Point{{2, 2}, {2, 1}, {2, 0}},
		b.MinesByDistance(2, 2),
	)

	empty := layoutBoard(t, 2, 2)
	assert.Empty(t, empty.MinesByDistance(0, 0))
}
