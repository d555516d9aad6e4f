package session

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var ErrBadSnapshot = errors.New("bad session snapshot")

type sessionGob struct {
	Id           string
	Mode         int
	Difficulty   string
	Level        int
	Params       mines.GameParams
	Board        []byte
	State        int
	StartedAt    time.Time
	EndedAt      time.Time
	MineSequence []mines.Point
	Recorded     bool
	Seed         *uint64
}

// Bytes encodes the session so that [DecodeSession] can bring it back after
// a restart or an eviction.
func (s *Session) Bytes() ([]byte, error) {
	board, err := s.board.Bytes()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = gob.NewEncoder(&buf).Encode(sessionGob{
		Id:           s.id,
		Mode:         int(s.setup.Mode),
		Difficulty:   s.setup.Difficulty,
		Level:        s.setup.Level,
		Params:       s.setup.Params,
		Board:        board,
		State:        int(s.state),
		StartedAt:    s.startedAt,
		EndedAt:      s.endedAt,
		MineSequence: s.mineSequence,
		Recorded:     s.recorded,
		Seed:         s.seed,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSession(buf []byte, opts ...Option) (*Session, error) {
	var g sessionGob
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	board, err := mines.DecodeBoard(g.Board)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	mode, state := Mode(g.Mode), State(g.State)
	switch {
	case mode != Classic && mode != Challenge:
		return nil, fmt.Errorf("%w: mode %d", ErrBadSnapshot, g.Mode)
	case state < Ready || state > Lost:
		return nil, fmt.Errorf("%w: state %d", ErrBadSnapshot, g.State)
	case board.Params() != g.Params:
		return nil, fmt.Errorf("%w: board %s, setup %s",
			ErrBadSnapshot, board.Params(), g.Params)
	case (state == Playing || state == Won) && !board.Generated():
		return nil, fmt.Errorf("%w: %s game on an empty board", ErrBadSnapshot, state)
	case state == Ready && board.Generated():
		return nil, fmt.Errorf("%w: ready game on a mined board", ErrBadSnapshot)
	}

	s := &Session{
		id: g.Id,
		setup: Setup{
			Mode:       mode,
			Difficulty: g.Difficulty,
			Level:      g.Level,
			Params:     g.Params,
		},
		board:        board,
		state:        state,
		startedAt:    g.StartedAt,
		endedAt:      g.EndedAt,
		mineSequence: g.MineSequence,
		recorded:     g.Recorded,
		seed:         g.Seed,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
