package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/records"
)

func newTestManager(t *testing.T, clock *fakeClock) (*Manager, records.Store) {
	t.Helper()
	store := records.NewMemory()
	return newTestManagerWithStore(t, clock, store), store
}

func newTestManagerWithStore(
	t *testing.T,
	clock *fakeClock,
	store records.Store,
	opts ...ManagerOption,
) *Manager {
	t.Helper()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.FatalLevel)

	n := 0
	opts = append([]ManagerOption{
		WithManagerClock(clock.Now),
		WithIdGenerator(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
	}, opts...)
	return NewManager(store, log, opts...)
}

// flakyStore fails the next failures writes.
type flakyStore struct {
	*records.Memory
	failures int
}

func (s *flakyStore) SetBestIfBetter(ctx context.Context, key string, seconds int) (bool, error) {
	if s.failures > 0 {
		s.failures--
		return false, errors.New("store unavailable")
	}
	return s.Memory.SetBestIfBetter(ctx, key, seconds)
}

func (m *Manager) testSession(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].session
}

// winningMoves opens first and then every remaining safe cell of session id.
func winningMoves(t *testing.T, m *Manager, id string, first mines.Point) []Move {
	t.Helper()
	_, err := m.Apply(context.Background(), id, []Move{{MoveOpen, first.X, first.Y}})
	require.NoError(t, err)

	var moves []Move
	for _, p := range safeCells(m.testSession(id).Board()) {
		moves = append(moves, Move{MoveOpen, p.X, p.Y})
	}
	return moves
}

func TestManagerCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, newFakeClock())
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Easy))
	require.NoError(t, err)
	assert.Equal(t, "s1", v.Id)
	assert.Equal(t, Ready, v.State)
	assert.Nil(t, v.Best)

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerRejectsBadBatch(t *testing.T) {
	m, _ := newTestManager(t, newFakeClock())
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Easy))
	require.NoError(t, err)

	_, err = m.Apply(ctx, v.Id, []Move{
		{MoveOpen, 0, 0},
		{MoveFlag, 1, 1},
		{MoveOpen, 99, 99},
	})
	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, 2, moveErr.Index)
	assert.ErrorIs(t, err, mines.ErrOutOfBounds)

	v, err = m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
	assert.Equal(t, 10, v.MinesLeft)
}

func TestManagerStopsAtGameOver(t *testing.T) {
	m, _ := newTestManager(t, newFakeClock())
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Easy), WithSeed(7))
	require.NoError(t, err)
	_, err = m.Apply(ctx, v.Id, []Move{{Kind: MoveOpen}})
	require.NoError(t, err)

	mine := findMine(t, m.testSession(v.Id).Board())
	v, err = m.Apply(ctx, v.Id, []Move{
		{MoveOpen, mine.X, mine.Y},
		{MoveFlag, 8, 8},
	})
	require.NoError(t, err)
	assert.Equal(t, Lost, v.State)
	assert.Equal(t, 10, v.MinesLeft, "flag after the loss must not be played")
	assert.Len(t, v.MineSequence, 10)
	assert.Equal(t, mines.Mine, v.Grid[mine.Y*9+mine.X])
}

func TestManagerRecordsBest(t *testing.T) {
	clock := newFakeClock()
	m, store := newTestManager(t, clock)
	ctx := context.Background()

	play := func(seconds time.Duration) *View {
		v, err := m.Create(ctx, PresetSetup(Easy), WithSeed(3))
		require.NoError(t, err)
		moves := winningMoves(t, m, v.Id, mines.Point{X: 4, Y: 4})
		clock.Advance(seconds)
		v, err = m.Apply(ctx, v.Id, moves)
		require.NoError(t, err)
		require.Equal(t, Won, v.State)
		return v
	}

	v := play(30 * time.Second)
	assert.True(t, v.NewBest)
	require.NotNil(t, v.Best)
	assert.Equal(t, 30, *v.Best)

	v = play(45 * time.Second)
	assert.False(t, v.NewBest)
	assert.Equal(t, 30, *v.Best)

	v = play(12 * time.Second)
	assert.True(t, v.NewBest)
	assert.Equal(t, 12, *v.Best)

	best, ok, err := store.GetBest(ctx, "Easy_9x9_10")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, best)

	// reading a finished game records nothing new
	v, err = m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.False(t, v.NewBest)
}

func TestManagerChallengeProgress(t *testing.T) {
	m, _ := newTestManager(t, newFakeClock())
	ctx := context.Background()

	unlocked, err := m.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unlocked)

	_, err = m.Create(ctx, ChallengeSetup(2))
	assert.ErrorIs(t, err, ErrLevelLocked)

	v, err := m.Create(ctx, ChallengeSetup(1), WithSeed(11))
	require.NoError(t, err)
	v, err = m.Apply(ctx, v.Id, winningMoves(t, m, v.Id, mines.Point{X: 0, Y: 0}))
	require.NoError(t, err)
	require.Equal(t, Won, v.State)

	unlocked, err = m.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unlocked)

	v, err = m.Create(ctx, ChallengeSetup(2))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Level)

	statuses, err := m.Challenge(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, MaxLevel)
	assert.True(t, statuses[0].Unlocked)
	assert.NotNil(t, statuses[0].Best)
	assert.True(t, statuses[1].Unlocked)
	assert.Nil(t, statuses[1].Best)
	assert.False(t, statuses[2].Unlocked)
}

func TestManagerProgressFromStore(t *testing.T) {
	m, store := newTestManager(t, newFakeClock())
	ctx := context.Background()

	for _, level := range []int{1, 2, 3, 5} {
		_, err := store.SetBestIfBetter(ctx, LevelConfig(level).BestKey(), 100)
		require.NoError(t, err)
	}

	// level 4 was never cleared, so 5 does not count
	unlocked, err := m.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, unlocked)
}

func TestManagerSweep(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestManager(t, clock)
	ctx := context.Background()

	old, err := m.Create(ctx, PresetSetup(Easy))
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	fresh, err := m.Create(ctx, PresetSetup(Easy))
	require.NoError(t, err)
	clock.Advance(40 * time.Minute)

	assert.Equal(t, 1, m.Sweep(ctx, time.Hour))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, old.Id)
	assert.ErrorIs(t, err, ErrNotFound)

	// touching a session keeps it alive
	clock.Advance(50 * time.Minute)
	_, err = m.Get(ctx, fresh.Id)
	require.NoError(t, err)
	clock.Advance(50 * time.Minute)
	assert.Zero(t, m.Sweep(ctx, time.Hour))
}

func TestManagerConcurrentMoves(t *testing.T) {
	m, _ := newTestManager(t, newFakeClock())
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Hard))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for x := range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Apply(ctx, v.Id, []Move{{MoveFlag, x, 15}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err = m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.Equal(t, 99-30, v.MinesLeft)
}

func TestManagerRetriesFailedRecord(t *testing.T) {
	clock := newFakeClock()
	store := &flakyStore{Memory: records.NewMemory(), failures: 1}
	m := newTestManagerWithStore(t, clock, store)
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Easy), WithSeed(3))
	require.NoError(t, err)
	moves := winningMoves(t, m, v.Id, mines.Point{X: 4, Y: 4})
	clock.Advance(20 * time.Second)

	// the winning board is shown even though the store refused the time
	v, err = m.Apply(ctx, v.Id, moves)
	require.NoError(t, err)
	assert.Equal(t, Won, v.State)
	assert.False(t, v.NewBest)
	assert.Nil(t, v.Best)
	_, ok, err := store.GetBest(ctx, "Easy_9x9_10")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(time.Minute)
	v, err = m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.True(t, v.NewBest)
	require.NotNil(t, v.Best)
	assert.Equal(t, 20, *v.Best)

	v, err = m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.False(t, v.NewBest)
}

func TestManagerResumesSweptSession(t *testing.T) {
	clock := newFakeClock()
	archive := records.NewMemory()
	m := newTestManagerWithStore(t, clock, records.NewMemory(), WithArchive(archive))
	ctx := context.Background()

	v, err := m.Create(ctx, PresetSetup(Easy), WithSeed(5))
	require.NoError(t, err)
	v, err = m.Apply(ctx, v.Id, []Move{{MoveOpen, 4, 4}})
	require.NoError(t, err)
	require.Equal(t, Playing, v.State)

	lost, err := m.Create(ctx, PresetSetup(Easy))
	require.NoError(t, err)
	_, err = m.Apply(ctx, lost.Id, []Move{{Kind: MoveForfeit}})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 2, m.Sweep(ctx, time.Hour))
	assert.Zero(t, m.Len())

	_, ok, err := archive.LoadSession(ctx, lost.Id)
	require.NoError(t, err)
	assert.False(t, ok, "finished games are not archived")

	got, err := m.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.Equal(t, Playing, got.State)
	assert.Equal(t, v.Grid, got.Grid)
	assert.Equal(t, v.StartedAt, got.StartedAt)
	assert.Equal(t, 1, m.Len())

	_, ok, err = archive.LoadSession(ctx, v.Id)
	require.NoError(t, err)
	assert.False(t, ok, "a resumed session leaves the archive")

	_, err = m.Get(ctx, lost.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerFlushSurvivesRestart(t *testing.T) {
	clock := newFakeClock()
	archive := records.NewMemory()
	store := records.NewMemory()
	ctx := context.Background()

	m := newTestManagerWithStore(t, clock, store, WithArchive(archive))
	v, err := m.Create(ctx, PresetSetup(Easy), WithSeed(9))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Flush(ctx))

	restarted := newTestManagerWithStore(t, clock, store, WithArchive(archive))
	got, err := restarted.Get(ctx, v.Id)
	require.NoError(t, err)
	assert.Equal(t, Ready, got.State)

	// the seed travels with the snapshot
	_, err = m.Apply(ctx, v.Id, []Move{{MoveOpen, 2, 2}})
	require.NoError(t, err)
	_, err = restarted.Apply(ctx, v.Id, []Move{{MoveOpen, 2, 2}})
	require.NoError(t, err)
	assert.Equal(t,
		m.testSession(v.Id).Board().PlayerGrid(),
		restarted.testSession(v.Id).Board().PlayerGrid(),
	)
}
