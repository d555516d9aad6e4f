package mines

// CheckWin reports whether every safe cell has been revealed. Flags do not
// matter.
func (b *Board) CheckWin() bool {
	for _, c := range b.cells {
		if !c.Mine && c.State != Revealed {
			return false
		}
	}
	return true
}
