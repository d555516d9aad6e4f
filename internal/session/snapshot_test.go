package session

import (
	"bytes"
	"encoding/gob"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

func TestSessionSnapshot(t *testing.T) {
	clock := newFakeClock()

	tests := []struct {
		name  string
		setup Setup
		play  func(t *testing.T, s *Session)
	}{
		{"ready", PresetSetup(Easy), func(t *testing.T, s *Session) {}},
		{"playing", PresetSetup(Medium), func(t *testing.T, s *Session) {
			_, err := s.Open(8, 8)
			require.NoError(t, err)
			_, err = s.Flag(0, 15)
			require.NoError(t, err)
		}},
		{"lost challenge", ChallengeSetup(3), func(t *testing.T, s *Session) {
			_, err := s.Open(0, 0)
			require.NoError(t, err)
			mine := findMine(t, s.Board())
			_, err = s.Open(mine.X, mine.Y)
			require.NoError(t, err)
			require.Equal(t, Lost, s.State())
		}},
		{"forfeited before the first open", CustomSetup(7, 6, 5), func(t *testing.T, s *Session) {
			require.True(t, s.Forfeit())
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestSession(t, test.setup, clock)
			test.play(t, s)
			clock.Advance(time.Minute)

			buf, err := s.Bytes()
			require.NoError(t, err)
			decoded, err := DecodeSession(buf, WithClock(clock.Now))
			require.NoError(t, err)

			assert.Equal(t, s.View(), decoded.View())
			assert.Equal(t, s.Setup(), decoded.Setup())
			assert.Equal(t, s.recorded, decoded.recorded)
		})
	}
}

func encodeSessionGob(t *testing.T, g sessionGob) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(g))
	return buf.Bytes()
}

func TestDecodeSessionRejectsCorrupt(t *testing.T) {
	clock := newFakeClock()
	playing := newTestSession(t, PresetSetup(Easy), clock)
	_, err := playing.Open(4, 4)
	require.NoError(t, err)
	minedBoard, err := playing.Board().Bytes()
	require.NoError(t, err)

	empty, err := mines.NewBoardFromParams(Easy.GameParams)
	require.NoError(t, err)
	emptyBoard, err := empty.Bytes()
	require.NoError(t, err)

	valid := sessionGob{
		Id:     "abc",
		Mode:   int(Classic),
		Params: Easy.GameParams,
		Board:  minedBoard,
		State:  int(Playing),
	}

	tests := []struct {
		name    string
		corrupt func(g *sessionGob)
	}{
		{"unknown mode", func(g *sessionGob) { g.Mode = 7 }},
		{"unknown state", func(g *sessionGob) { g.State = -1 }},
		{"board does not match setup", func(g *sessionGob) { g.Params = Medium.GameParams }},
		{"playing on an empty board", func(g *sessionGob) { g.Board = emptyBoard }},
		{"ready on a mined board", func(g *sessionGob) { g.State = int(Ready) }},
		{"broken board", func(g *sessionGob) { g.Board = []byte("nope") }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := valid
			test.corrupt(&g)
			_, err := DecodeSession(encodeSessionGob(t, g))
			assert.ErrorIs(t, err, ErrBadSnapshot)
		})
	}

	_, err = DecodeSession(encodeSessionGob(t, valid))
	assert.NoError(t, err)
	_, err = DecodeSession([]byte("garbage"))
	assert.ErrorIs(t, err, ErrBadSnapshot)
}
