package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/records"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrLevelLocked = errors.New("challenge level is locked")
)

type MoveKind int

const (
	MoveGet MoveKind = iota
	MoveOpen
	MoveFlag
	MoveChord
	MoveForfeit
)

type Move struct {
	Kind MoveKind
	X, Y int
}

func (m Move) hasPoint() bool {
	return m.Kind == MoveOpen || m.Kind == MoveFlag || m.Kind == MoveChord
}

// MoveError reports which move of a batch was rejected. No move of a rejected
// batch is applied.
type MoveError struct {
	Index int
	Err   error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %d: %s", e.Index, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// Manager owns the live sessions. Moves on one session are serialized; moves
// on different sessions run in parallel.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	store   records.Store
	archive Archive
	log     *logrus.Logger
	now   func() time.Time
	newId func() string
}

type ManagerOption func(*Manager)

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func WithIdGenerator(newId func() string) ManagerOption {
	return func(m *Manager) {
		m.newId = newId
	}
}

// WithArchive keeps evicted and flushed sessions in a so they can be resumed
// later.
func WithArchive(a Archive) ManagerOption {
	return func(m *Manager) {
		m.archive = a
	}
}

func NewManager(store records.Store, log *logrus.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		store:    store,
		log:      log,
		now:      time.Now,
		newId:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session. Challenge levels past the player's progress
// fail with [ErrLevelLocked].
func (m *Manager) Create(ctx context.Context, setup Setup, opts ...Option) (*View, error) {
	if setup.Mode == Challenge {
		unlocked, err := m.Progress(ctx)
		if err != nil {
			return nil, err
		}
		if setup.Level > unlocked {
			return nil, fmt.Errorf("%w: level %d, unlocked up to %d",
				ErrLevelLocked, setup.Level, unlocked)
		}
	}

	opts = append([]Option{WithClock(m.now)}, opts...)
	s, err := New(m.newId(), setup, opts...)
	if err != nil {
		return nil, err
	}

	e := &entry{session: s, lastSeen: m.now()}
	m.mu.Lock()
	m.sessions[s.Id()] = e
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"session":    s.Id(),
		"mode":       setup.Mode,
		"difficulty": setup.Difficulty,
		"params":     setup.Params.String(),
	}).Debug("session created")

	e.mu.Lock()
	defer e.mu.Unlock()
	return m.view(ctx, s, false), nil
}

// lookup finds a live session, resuming it from the archive if it was
// evicted or flushed.
func (m *Manager) lookup(ctx context.Context, id string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastSeen = m.now()
	}
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	if m.archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	data, ok, err := m.archive.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load session %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s, err := DecodeSession(data, WithClock(m.now))
	if err != nil {
		return nil, fmt.Errorf("unable to resume session %s: %w", id, err)
	}

	m.mu.Lock()
	if live, ok := m.sessions[id]; ok {
		// resumed concurrently
		e = live
	} else {
		e = &entry{session: s}
		m.sessions[id] = e
	}
	e.lastSeen = m.now()
	m.mu.Unlock()

	if err := m.archive.DeleteSession(ctx, id); err != nil {
		m.log.WithField("session", id).WithError(err).Warn("unable to drop resumed snapshot")
	}
	m.log.WithField("session", id).Debug("session resumed")
	return e, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*View, error) {
	return m.Apply(ctx, id, nil)
}

// Apply plays moves in order and stops at the first move that ends the game.
// Every move is checked before any is played, so a bad batch leaves the
// session untouched.
func (m *Manager) Apply(ctx context.Context, id string, moves []Move) (*View, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	for i, move := range moves {
		if move.hasPoint() {
			if err := s.validate(move.X, move.Y); err != nil {
				return nil, &MoveError{Index: i, Err: err}
			}
		}
	}

	for _, move := range moves {
		if s.State().Finished() {
			break
		}
		if err := s.play(move); err != nil {
			return nil, err
		}
	}

	// A win the store failed to take is retried on the next call.
	newBest := false
	if s.State() == Won && !s.recorded {
		newBest, err = m.recordWin(ctx, s)
		if err != nil {
			m.log.WithField("session", s.Id()).WithError(err).Error("unable to record win")
		} else {
			s.recorded = true
		}
	}
	return m.view(ctx, s, newBest), nil
}

func (s *Session) play(move Move) (err error) {
	switch move.Kind {
	case MoveGet:
	case MoveOpen:
		_, err = s.Open(move.X, move.Y)
	case MoveFlag:
		_, err = s.Flag(move.X, move.Y)
	case MoveChord:
		_, err = s.Chord(move.X, move.Y)
	case MoveForfeit:
		s.Forfeit()
	default:
		err = fmt.Errorf("unknown move kind %d", move.Kind)
	}
	return
}

func (m *Manager) recordWin(ctx context.Context, s *Session) (bool, error) {
	seconds := s.Seconds()
	newBest, err := m.store.SetBestIfBetter(ctx, s.BestKey(), seconds)
	if err != nil {
		return false, fmt.Errorf("unable to record best time: %w", err)
	}
	log := m.log.WithFields(logrus.Fields{
		"session": s.Id(),
		"key":     s.BestKey(),
		"time":    FormatTime(seconds),
	})
	if newBest {
		log.Info("new best time")
	} else {
		log.Debug("game won")
	}
	if s.Setup().Mode == Challenge {
		log.WithField("level", s.Setup().Level).Debug("challenge level cleared")
	}
	return newBest, nil
}

// Progress returns the highest unlocked challenge level. Level 1 is always
// open and each cleared level opens the next.
func (m *Manager) Progress(ctx context.Context) (int, error) {
	unlocked := MinLevel
	for _, l := range Levels[:MaxLevel-1] {
		_, ok, err := m.store.GetBest(ctx, l.BestKey())
		if err != nil {
			return 0, fmt.Errorf("unable to read challenge progress: %w", err)
		}
		if !ok {
			break
		}
		unlocked = l.Id + 1
	}
	return unlocked, nil
}

type LevelStatus struct {
	Level
	Best     *int `json:"best"`
	Unlocked bool `json:"unlocked"`
}

// Challenge lists every level with its best time and lock state.
func (m *Manager) Challenge(ctx context.Context) ([]LevelStatus, error) {
	unlocked, err := m.Progress(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]LevelStatus, 0, MaxLevel)
	for _, l := range Levels {
		best, err := m.best(ctx, l.BestKey())
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, LevelStatus{
			Level:    l,
			Best:     best,
			Unlocked: l.Id <= unlocked,
		})
	}
	return statuses, nil
}

func (m *Manager) best(ctx context.Context, key string) (*int, error) {
	seconds, ok, err := m.store.GetBest(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("unable to read best time: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &seconds, nil
}

// Best returns the best time stored under key, nil if there is none.
func (m *Manager) Best(ctx context.Context, key string) (*int, error) {
	return m.best(ctx, key)
}

// Sweep drops sessions nobody touched for longer than maxIdle and returns how
// many went. Unfinished games are archived first when an archive is set.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) int {
	m.mu.Lock()
	cutoff := m.now().Add(-maxIdle)
	var evicted []*entry
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, e)
		}
	}
	live := len(m.sessions)
	m.mu.Unlock()

	archived := 0
	for _, e := range evicted {
		if m.archiveEntry(ctx, e) {
			archived++
		}
	}
	if len(evicted) > 0 {
		m.log.WithFields(logrus.Fields{
			"evicted":  len(evicted),
			"archived": archived,
			"live":     live,
		}).Debug("swept idle sessions")
	}
	return len(evicted)
}

// Flush archives every unfinished live session, leaving them live. It
// returns how many were written.
func (m *Manager) Flush(ctx context.Context) int {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	n := 0
	for _, e := range entries {
		if m.archiveEntry(ctx, e) {
			n++
		}
	}
	m.log.WithField("archived", n).Info("flushed sessions")
	return n
}

func (m *Manager) archiveEntry(ctx context.Context, e *entry) bool {
	if m.archive == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	// a won game still owed to the records store is kept for the retry
	if s.State() == Lost || (s.State() == Won && s.recorded) {
		return false
	}
	log := m.log.WithField("session", s.Id())
	data, err := s.Bytes()
	if err != nil {
		log.WithError(err).Error("unable to encode session")
		return false
	}
	if err := m.archive.SaveSession(ctx, s.Id(), data); err != nil {
		log.WithError(err).Error("unable to archive session")
		return false
	}
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep(ctx, maxIdle)
		}
	}
}
