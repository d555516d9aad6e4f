package session

import (
	"context"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

// View is what a client sees of a session.
type View struct {
	Id           string        `json:"id"`
	Mode         Mode          `json:"mode"`
	Difficulty   string        `json:"difficulty"`
	Level        int           `json:"level,omitempty"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	MineCount    int           `json:"mine_count"`
	MinesLeft    int           `json:"mines_left"`
	State        State         `json:"state"`
	Grid         mines.Grid    `json:"grid"`
	StartedAt    *time.Time    `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at"`
	Seconds      int           `json:"seconds"`
	Time         string        `json:"time"`
	BestKey      string        `json:"best_key"`
	Best         *int          `json:"best"`
	NewBest      bool          `json:"new_best"`
	MineSequence []mines.Point `json:"mine_sequence,omitempty"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Session) View() *View {
	setup := s.Setup()
	return &View{
		Id:           s.Id(),
		Mode:         setup.Mode,
		Difficulty:   setup.Difficulty,
		Level:        setup.Level,
		Width:        setup.Params.Width,
		Height:       setup.Params.Height,
		MineCount:    setup.Params.MineCount,
		MinesLeft:    s.MinesLeft(),
		State:        s.State(),
		Grid:         s.Board().PlayerGrid(),
		StartedAt:    timeOrNil(s.StartedAt()),
		EndedAt:      timeOrNil(s.EndedAt()),
		Seconds:      s.Seconds(),
		Time:         FormatTime(s.Seconds()),
		BestKey:      s.BestKey(),
		MineSequence: s.MineSequence(),
	}
}

// view fills in the record slot of s. A store that cannot be read leaves Best
// empty instead of hiding the board.
func (m *Manager) view(ctx context.Context, s *Session, newBest bool) *View {
	v := s.View()
	best, err := m.best(ctx, s.BestKey())
	if err != nil {
		m.log.WithField("session", s.Id()).WithError(err).Warn("unable to read best time")
	}
	v.Best = best
	v.NewBest = newBest
	return v
}
