package mines

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

type generateOptions struct {
	rnd *rand.Rand
}

type GenerateOption = func(*generateOptions)

// WithSeed makes mine placement reproducible: the same seed, board and first
// click always give the same mines.
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) {
		o.rnd = rand.New(rand.NewPCG(seed, seed))
	}
}

func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) {
		o.rnd = r
	}
}

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// Generate places the mines so that none of them lands on firstX:firstY or
// next to it, then computes the adjacency counts. It does nothing once the
// board has been generated.
func (b *Board) Generate(firstX, firstY int, opts ...GenerateOption) error {
	if b.generated {
		return nil
	}
	if !b.InBounds(firstX, firstY) {
		return ErrOutOfBounds
	}

	options := &generateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.rnd == nil {
		options.rnd = createRand()
	}

	if free := len(b.cells) - b.Params().SafeZoneSize(firstX, firstY); b.mineCount > free {
		return &ConfigurationError{
			Width: b.width, Height: b.height, MineCount: b.mineCount,
			Candidates: free,
		}
	}

	safe := make(map[int]struct{}, 9)
	safe[b.Index(firstX, firstY)] = struct{}{}
	for n := range b.Neighbors(firstX, firstY) {
		safe[b.Index(n.X, n.Y)] = struct{}{}
	}

	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]int, 0, len(b.cells)-len(safe))
	for i := range b.cells {
		if _, ok := safe[i]; !ok {
			candidates = append(candidates, i)
		}
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range b.mineCount {
		i := options.rnd.IntN(k)
		b.cells[candidates[i]].Mine = true
		k--
		candidates[i] = candidates[k]
	}

	b.computeAdjacency()
	b.generated = true

	Log.WithFields(logrus.Fields{
		"params": b.Params().String(),
		"first":  Point{firstX, firstY}.String(),
	}).Debug("generated board")

	return nil
}

func (b *Board) computeAdjacency() {
	for i := range b.cells {
		if b.cells[i].Mine {
			continue
		}
		n := 0
		for j := range b.neighborIndices(i) {
			if b.cells[j].Mine {
				n++
			}
		}
		b.cells[i].Adjacent = n
	}
}
