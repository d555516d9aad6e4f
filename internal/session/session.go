package session

import (
	"fmt"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type State int

const (
	Ready State = iota
	Playing
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// [State] implements [encoding.TextMarshaler]
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s State) Finished() bool {
	return s == Won || s == Lost
}

const MaxSeconds = 9999

// Session is one game on one board. It is not safe for concurrent use.
type Session struct {
	id    string
	setup Setup
	board *mines.Board
	state State

	startedAt time.Time
	endedAt   time.Time

	// mines in the order a loss uncovers them, nearest to the fatal click first
	mineSequence []mines.Point

	// set once a win has reached the records store
	recorded bool

	now  func() time.Time
	seed *uint64
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithSeed(seed uint64) Option {
	return func(s *Session) {
		s.seed = &seed
	}
}

func New(id string, setup Setup, opts ...Option) (*Session, error) {
	board, err := mines.NewBoardFromParams(setup.Params)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:    id,
		setup: setup,
		board: board,
		state: Ready,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) Id() string           { return s.id }
func (s *Session) Setup() Setup         { return s.setup }
func (s *Session) Board() *mines.Board  { return s.board }
func (s *Session) State() State         { return s.state }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) EndedAt() time.Time   { return s.endedAt }

func (s *Session) MineSequence() []mines.Point {
	return s.mineSequence
}

func (s *Session) BestKey() string {
	return s.setup.BestKey()
}

func (s *Session) validate(x, y int) error {
	if !s.setup.Params.ValidatePoint(x, y) {
		return fmt.Errorf("%w: %d:%d", mines.ErrOutOfBounds, x, y)
	}
	return nil
}

// Open reveals x:y, placing the mines around it on the first open. Moves on a
// finished game change nothing.
func (s *Session) Open(x, y int) (changed bool, err error) {
	if err := s.validate(x, y); err != nil {
		return false, err
	}
	if s.state.Finished() {
		return false, nil
	}
	if s.state == Ready {
		var opts []mines.GenerateOption
		if s.seed != nil {
			opts = append(opts, mines.WithSeed(*s.seed))
		}
		if err := s.board.Generate(x, y, opts...); err != nil {
			return false, err
		}
		s.state = Playing
		s.startedAt = s.now()
	}
	changed, hitMine := s.board.Reveal(x, y)
	s.settle(x, y, changed, hitMine)
	return changed, nil
}

func (s *Session) Flag(x, y int) (changed bool, err error) {
	if err := s.validate(x, y); err != nil {
		return false, err
	}
	if s.state.Finished() {
		return false, nil
	}
	return s.board.ToggleFlag(x, y), nil
}

func (s *Session) Chord(x, y int) (changed bool, err error) {
	if err := s.validate(x, y); err != nil {
		return false, err
	}
	if s.state != Playing {
		return false, nil
	}
	changed, hitMine := s.board.Chord(x, y)
	s.settle(x, y, changed, hitMine)
	return changed, nil
}

// Forfeit ends the game as a loss without a fatal click.
func (s *Session) Forfeit() bool {
	if s.state.Finished() {
		return false
	}
	if s.state == Ready {
		s.startedAt = s.now()
	}
	s.state = Lost
	s.endedAt = s.now()
	s.board.RevealAllMines()
	return true
}

func (s *Session) settle(x, y int, changed, hitMine bool) {
	switch {
	case !changed:
	case hitMine:
		s.state = Lost
		s.endedAt = s.now()
		s.mineSequence = s.board.MinesByDistance(x, y)
		s.board.RevealAllMines()
	case s.board.CheckWin():
		s.state = Won
		s.endedAt = s.now()
	}
}

func (s *Session) Elapsed() time.Duration {
	switch {
	case s.state == Ready:
		return 0
	case s.state.Finished():
		return s.endedAt.Sub(s.startedAt)
	default:
		return s.now().Sub(s.startedAt)
	}
}

// Seconds is the elapsed time as shown on the timer.
func (s *Session) Seconds() int {
	return min(max(int(s.Elapsed()/time.Second), 0), MaxSeconds)
}

// MinesLeft never drops below zero, even when the player over-flags.
func (s *Session) MinesLeft() int {
	return max(0, s.board.MinesLeft())
}

// FormatTime renders seconds as mm:ss, or "--" for a missing time.
func FormatTime(seconds int) string {
	if seconds < 0 {
		return "--"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
