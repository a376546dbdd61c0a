package starmatch

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/random"
	"github.com/roach88/arcade/internal/timer"
)

// DefaultTick is the countdown interval.
const DefaultTick = time.Second

// settings holds everything a Session is built from.
type settings struct {
	seed      *int64
	initial   *Puzzle
	seconds   int
	tick      time.Duration
	scheduler timer.Scheduler
	idGen     ids.Generator
	logger    *slog.Logger
	onTick    func(Snapshot)
}

// Option configures a Session.
type Option func(*settings)

// WithSeed fixes the PRNG seed. Without it a crypto seed is drawn.
func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed = &seed }
}

// WithInitial starts the session from p instead of a fresh puzzle.
func WithInitial(p Puzzle) Option {
	return func(s *settings) { s.initial = &p }
}

// WithSeconds sets the countdown length. Default: DefaultSeconds.
func WithSeconds(n int) Option {
	return func(s *settings) { s.seconds = n }
}

// WithTick sets the countdown interval. Default: DefaultTick.
func WithTick(d time.Duration) Option {
	return func(s *settings) { s.tick = d }
}

// WithScheduler sets where countdown tasks are scheduled.
// Default: timer.Real{}.
func WithScheduler(sched timer.Scheduler) Option {
	return func(s *settings) { s.scheduler = sched }
}

// WithIDGenerator sets the session ID source. Default: UUIDv7.
func WithIDGenerator(gen ids.Generator) Option {
	return func(s *settings) { s.idGen = gen }
}

// WithLogger sets the session logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithTickObserver registers f to be called after every applied tick.
func WithTickObserver(f func(Snapshot)) Option {
	return func(s *settings) { s.onTick = f }
}

// Session is one Star Match play-through.
//
// Session is safe for concurrent use. With timer.Real the countdown fires on
// runtime goroutines, so every read and transition holds mu. The tick
// observer runs after mu is released and may call back into the session.
type Session struct {
	cfg  settings
	id   string
	seed int64

	mu     sync.Mutex
	rng    *rand.Rand
	puzzle Puzzle

	pending timer.Task
	gen     uint64
	closed  bool
}

// NewSession creates a session and starts its countdown.
func NewSession(opts ...Option) *Session {
	cfg := settings{
		seconds:   DefaultSeconds,
		tick:      DefaultTick,
		scheduler: timer.Real{},
		idGen:     ids.UUIDv7Generator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	seed := random.MustSeed()
	if cfg.seed != nil {
		seed = *cfg.seed
	}
	s := &Session{
		cfg:  cfg,
		id:   cfg.idGen.Generate(),
		seed: seed,
		rng:  random.New(seed),
	}
	if cfg.initial != nil {
		s.puzzle = *cfg.initial
	} else {
		s.puzzle = NewPuzzle(s.rng, cfg.seconds)
	}

	s.cfg.logger.Debug("star match session started",
		"session", s.id,
		"seed", s.seed,
		"stars", s.puzzle.Stars(),
	)
	s.mu.Lock()
	s.reschedule()
	s.mu.Unlock()
	return s
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// Seed returns the PRNG seed, which together with the action list
// reproduces the session.
func (s *Session) Seed() int64 { return s.seed }

// Puzzle returns the current puzzle value.
func (s *Session) Puzzle() Puzzle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puzzle
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// TickPending reports whether a countdown task is scheduled.
func (s *Session) TickPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Snapshot returns the current presentation view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot requires s.mu.
func (s *Session) snapshot() Snapshot {
	snap := s.puzzle.Snapshot()
	snap.SessionID = s.id
	return snap
}

// Select applies a number click. It reports false without changing
// anything if the click is illegal or the session is closed.
func (s *Session) Select(n int) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshot(), false
	}
	next, ok := s.puzzle.Select(s.rng, n)
	if !ok {
		return s.snapshot(), false
	}
	s.puzzle = next
	s.reschedule()
	return s.snapshot(), true
}

// Close cancels the countdown. A closed session ignores every later
// select and tick.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.cfg.logger.Debug("star match session closed", "session", s.id, "status", s.puzzle.RoundStatus())
}

// Restart closes s and returns a new session with a new identity and a
// new seed. Scheduling, countdown, logging and observer settings carry
// over; opts are applied on top.
func (s *Session) Restart(opts ...Option) *Session {
	s.Close()
	base := []Option{
		WithSeconds(s.cfg.seconds),
		WithTick(s.cfg.tick),
		WithScheduler(s.cfg.scheduler),
		WithIDGenerator(s.cfg.idGen),
		WithLogger(s.cfg.logger),
		WithTickObserver(s.cfg.onTick),
	}
	return NewSession(append(base, opts...)...)
}

// cancel stops the pending task and invalidates its generation.
// Requires s.mu.
func (s *Session) cancel() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

// reschedule replaces the pending countdown task after a state change.
// Requires s.mu.
func (s *Session) reschedule() {
	s.cancel()
	if s.closed || !s.puzzle.TimerRunning() {
		return
	}
	gen := s.gen
	s.pending = s.cfg.scheduler.AfterFunc(s.cfg.tick, func() { s.fire(gen) })
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.cfg.logger.Debug("dropping stale tick", "session", s.id, "gen", gen, "current", s.gen)
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.puzzle = s.puzzle.Tick()
	s.reschedule()
	snap := s.snapshot()
	s.mu.Unlock()

	if s.cfg.onTick != nil {
		s.cfg.onTick(snap)
	}
}
