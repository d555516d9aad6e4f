package mines

import (
	"cmp"
	"slices"
)

// Reveal opens x:y. Revealed and flagged cells are left alone, as is every
// cell of a board that has not been generated yet. Opening a cell with no
// mined neighbours opens the whole connected zero region and its border.
func (b *Board) Reveal(x, y int) (changed, hitMine bool) {
	if !b.generated || !b.InBounds(x, y) {
		return false, false
	}
	i := b.Index(x, y)
	c := &b.cells[i]
	if c.State != Hidden {
		return false, false
	}

	c.State = Revealed

	if c.Mine {
		return true, true
	}

	if c.Adjacent == 0 {
		b.flood(i)
	}

	return true, false
}

// flood expands breadth first from an already revealed zero cell. A cell is
// revealed as it is queued, so its state doubles as the visited marker.
func (b *Board) flood(start int) {
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for j := range b.neighborIndices(i) {
			n := &b.cells[j]
			if n.State != Hidden || n.Mine {
				continue
			}
			n.State = Revealed
			if n.Adjacent == 0 {
				queue = append(queue, j)
			}
		}
	}
}

// Chord opens every hidden neighbour of a revealed number once the player has
// flagged as many neighbours as that number says.
func (b *Board) Chord(x, y int) (changed, hitMine bool) {
	if !b.generated || !b.InBounds(x, y) {
		return false, false
	}
	c := b.cells[b.Index(x, y)]
	if c.State != Revealed || c.Mine || c.Adjacent == 0 {
		return false, false
	}

	flags := 0
	hidden := make([]Point, 0, 8)
	for n := range b.Neighbors(x, y) {
		switch b.cells[b.Index(n.X, n.Y)].State {
		case Flagged:
			flags++
		case Hidden:
			hidden = append(hidden, n)
		}
	}
	if flags != c.Adjacent {
		return false, false
	}

	for _, n := range hidden {
		ch, hit := b.Reveal(n.X, n.Y)
		changed = changed || ch
		hitMine = hitMine || hit
	}
	return changed, hitMine
}

// RevealAllMines opens every mine at once. Flagged mines are opened too.
func (b *Board) RevealAllMines() {
	for i := range b.cells {
		if b.cells[i].Mine {
			b.cells[i].State = Revealed
		}
	}
}

// MinesByDistance lists every mine ordered by squared distance from x:y, ties
// broken by cell index. It carries no timing; playback is up to the caller.
func (b *Board) MinesByDistance(x, y int) []Point {
	type mine struct {
		i, d2 int
	}
	var found []mine
	for i, c := range b.cells {
		if !c.Mine {
			continue
		}
		p := b.point(i)
		dx, dy := p.X-x, p.Y-y
		found = append(found, mine{i, dx*dx + dy*dy})
	}
	slices.SortFunc(found, func(m1, m2 mine) int {
		return cmp.Or(cmp.Compare(m1.d2, m2.d2), cmp.Compare(m1.i, m2.i))
	})
	points := make([]Point, len(found))
	for k, m := range found {
		points[k] = b.point(m.i)
	}
	return points
}
