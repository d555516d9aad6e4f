package mines

// ToggleFlag flips x:y between hidden and flagged. Revealed cells cannot be
// flagged.
func (b *Board) ToggleFlag(x, y int) bool {
	if !b.InBounds(x, y) {
		return false
	}
	c := &b.cells[b.Index(x, y)]
	switch c.State {
	case Hidden:
		c.State = Flagged
	case Flagged:
		c.State = Hidden
	default:
		return false
	}
	return true
}

func (b *Board) CountFlags() (count int) {
	for _, c := range b.cells {
		if c.State == Flagged {
			count++
		}
	}
	return
}

// MinesLeft may go negative when the player over-flags.
func (b *Board) MinesLeft() int {
	return b.mineCount - b.CountFlags()
}
