package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/random"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/store"
	"github.com/roach88/arcade/internal/tictactoe"
	"github.com/roach88/arcade/internal/timer"
)

// Recorder persists the trace. *store.Store implements it.
type Recorder interface {
	WriteSession(ctx context.Context, sess store.Session) error
	WriteAction(ctx context.Context, a store.Action) error
}

// Engine is the single-writer event loop that owns one Star Match session
// and one Tic-Tac-Toe game.
//
// Thread-safety model:
//   - Do(), Stop(), Scheduler(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Every game mutation and every store write happens on the Run goroutine.
type Engine struct {
	clock    *Clock
	queue    *eventQueue
	done     chan struct{}
	started  atomic.Bool
	base     timer.Scheduler
	recorder Recorder
	idGen    ids.Generator
	seeds    func() int64
	seconds  int
	tick     time.Duration
	initial  *starmatch.Puzzle
	games    map[string]bool
	observer func(Result)
	logger   *slog.Logger

	// Owned by the Run goroutine.
	ctx  context.Context
	star *starmatch.Session
	game *tictactoe.Game
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder records every processed action. Default: no trace.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithScheduler sets the scheduler countdown tasks are ultimately run on.
// Their callbacks are always routed back through the queue.
// Default: timer.Real{}.
func WithScheduler(s timer.Scheduler) EngineOption {
	return func(e *Engine) { e.base = s }
}

// WithIDGenerator sets the session and game ID source. Default: UUIDv7.
func WithIDGenerator(g ids.Generator) EngineOption {
	return func(e *Engine) { e.idGen = g }
}

// WithSeedSource sets where Star Match seeds come from.
// Default: random.MustSeed.
func WithSeedSource(f func() int64) EngineOption {
	return func(e *Engine) { e.seeds = f }
}

// WithStarMatch sets the countdown length and tick interval for every
// Star Match session.
func WithStarMatch(seconds int, tick time.Duration) EngineOption {
	return func(e *Engine) {
		e.seconds = seconds
		e.tick = tick
	}
}

// WithInitialPuzzle starts the first Star Match session from p instead of
// a fresh puzzle. Restarts always draw a fresh puzzle. A session opened
// this way does not replay from its seed.
func WithInitialPuzzle(p starmatch.Puzzle) EngineOption {
	return func(e *Engine) { e.initial = &p }
}

// WithGames limits the engine to the named games (store.GameStarMatch,
// store.GameTicTacToe). Actions for a game left out fail with
// GAME_DISABLED, and its snapshot in every Result is the zero value.
// Default: both.
func WithGames(games ...string) EngineOption {
	return func(e *Engine) {
		e.games = make(map[string]bool, len(games))
		for _, g := range games {
			e.games[g] = true
		}
	}
}

// WithObserver registers f to receive the result of every processed event
// except view, ticks included. f runs on the Run goroutine and must not
// call Do.
func WithObserver(f func(Result)) EngineOption {
	return func(e *Engine) { e.observer = f }
}

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithClock resumes seq numbering from c, e.g. NewClockAt(store.LastSeq).
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine. Games are opened when Run starts.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:   NewClock(),
		queue:   newEventQueue(),
		done:    make(chan struct{}),
		base:    timer.Real{},
		idGen:   ids.UUIDv7Generator{},
		seeds:   random.MustSeed,
		seconds: starmatch.DefaultSeconds,
		tick:    starmatch.DefaultTick,
		logger:  slog.Default(),
		games:   map[string]bool{store.GameStarMatch: true, store.GameTicTacToe: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Scheduler returns a timer.Scheduler whose callbacks run on the Run
// goroutine: a firing only enqueues, and the loop invokes the callback in
// FIFO order with every other event.
func (e *Engine) Scheduler() timer.Scheduler {
	return loopScheduler{e: e}
}

type loopScheduler struct{ e *Engine }

func (s loopScheduler) AfterFunc(d time.Duration, f func()) timer.Task {
	return s.e.base.AfterFunc(d, func() {
		s.e.queue.Enqueue(event{fire: f})
	})
}

// Do submits an action and waits for the loop to process it.
// Safe to call from any goroutine.
//
// Illegal moves are not errors: they return Applied false. Errors are
// *ActionError (unknown kind, stopped engine) or the context's error.
func (e *Engine) Do(ctx context.Context, a Action) (Result, error) {
	ev := event{action: &a, reply: make(chan reply, 1)}
	if !e.queue.Enqueue(ev) {
		return Result{}, newStoppedError(a.Kind)
	}

	select {
	case r := <-ev.reply:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		// The loop replies to drained events before closing done.
		select {
		case r := <-ev.reply:
			return r.result, r.err
		default:
			return Result{}, newStoppedError(a.Kind)
		}
	}
}

// QueueLen returns the number of events waiting for the loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run starts the single-writer event loop.
// Blocks until the context is cancelled or Stop() is called.
//
// ERROR HANDLING: a failed trace write is logged with the action's context
// and processing continues. The games never wait on the store.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("engine: Run called more than once")
	}
	defer close(e.done)
	defer e.shutdown()

	e.ctx = ctx
	e.logger.Info("engine starting", "seq", e.clock.Current())
	if e.games[store.GameStarMatch] {
		e.openStarMatch(KindStart)
	}
	if e.games[store.GameTicTacToe] {
		e.openTicTacToe()
	}

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			e.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop, so this fires
			// immediately once the queue is closed.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what was already queued and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// shutdown cancels the countdown and fails whatever is still queued.
func (e *Engine) shutdown() {
	if e.star != nil {
		e.star.Close()
	}
	for _, ev := range e.queue.Drain() {
		if ev.reply != nil {
			ev.reply <- reply{err: newStoppedError(ev.action.Kind)}
		}
	}
}

// process handles one event.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) process(ev event) {
	if ev.fire != nil {
		ev.fire()
		return
	}

	res, err := e.apply(*ev.action)
	if err != nil {
		e.logger.Warn("action rejected", "kind", ev.action.Kind, "error", err)
	} else {
		e.logger.Debug("action processed",
			"kind", res.Kind,
			"arg", ev.action.Arg,
			"seq", res.Seq,
			"applied", res.Applied,
		)
	}
	if ev.reply != nil {
		ev.reply <- reply{result: res, err: err}
	}
	if err == nil && res.Kind != KindView {
		e.notify(res)
	}
}

// apply routes an action to its game.
func (e *Engine) apply(a Action) (Result, error) {
	if err := e.check(a.Kind); err != nil {
		return Result{}, err
	}

	var (
		seq     int64
		applied = true
	)
	switch a.Kind {
	case KindView:
		return e.result(KindView, 0, true), nil

	case KindSelectNumber:
		var snap starmatch.Snapshot
		snap, applied = e.star.Select(a.Arg)
		seq = e.record(e.star.ID(), a.Kind, a.Arg, applied, snap)

	case KindRestartStarMatch:
		seq = e.openStarMatch(a.Kind)

	case KindMovePiece:
		var snap tictactoe.Snapshot
		snap, applied = e.game.Move(a.Arg)
		seq = e.record(e.game.ID(), a.Kind, a.Arg, applied, snap)

	case KindRestartBoard:
		seq = e.record(e.game.ID(), a.Kind, 0, true, e.game.RestartBoard())

	case KindResetScoreboard:
		seq = e.record(e.game.ID(), a.Kind, 0, true, e.game.ResetScoreboard())
	}

	res := e.result(a.Kind, seq, applied)
	if a.Kind == KindSelectNumber || a.Kind == KindMovePiece {
		res.Arg = a.Arg
	}
	return res, nil
}

// check rejects unknown kinds and actions for a game the engine does not
// run.
func (e *Engine) check(kind ActionKind) error {
	switch kind {
	case KindView:
		return nil
	case KindSelectNumber, KindRestartStarMatch:
		if e.star == nil {
			return newGameDisabledError(kind)
		}
		return nil
	case KindMovePiece, KindRestartBoard, KindResetScoreboard:
		if e.game == nil {
			return newGameDisabledError(kind)
		}
		return nil
	default:
		return newUnknownActionError(kind)
	}
}

// openStarMatch starts the first session, or replaces the current one with
// a fresh session on restart, and records its opening state.
func (e *Engine) openStarMatch(kind ActionKind) int64 {
	seed := e.seeds()
	if e.star == nil {
		opts := []starmatch.Option{
			starmatch.WithSeed(seed),
			starmatch.WithSeconds(e.seconds),
			starmatch.WithTick(e.tick),
			starmatch.WithScheduler(e.Scheduler()),
			starmatch.WithIDGenerator(e.idGen),
			starmatch.WithLogger(e.logger),
			starmatch.WithTickObserver(e.onTick),
		}
		if e.initial != nil {
			opts = append(opts, starmatch.WithInitial(*e.initial))
		}
		e.star = starmatch.NewSession(opts...)
	} else {
		e.star = e.star.Restart(starmatch.WithSeed(seed))
	}

	seq := e.clock.Next()
	e.writeSession(store.Session{
		ID:         e.star.ID(),
		Game:       store.GameStarMatch,
		Seed:       e.star.Seed(),
		StartedSeq: seq,
	})
	e.writeAction(seq, e.star.ID(), kind, 0, true, e.star.Snapshot())
	return seq
}

func (e *Engine) openTicTacToe() {
	e.game = tictactoe.NewGame(e.idGen)
	seq := e.clock.Next()
	e.writeSession(store.Session{
		ID:         e.game.ID(),
		Game:       store.GameTicTacToe,
		StartedSeq: seq,
	})
	e.writeAction(seq, e.game.ID(), KindStart, 0, true, e.game.Snapshot())
}

// onTick runs inside a countdown callback, which the loop scheduler
// already put on the Run goroutine.
func (e *Engine) onTick(snap starmatch.Snapshot) {
	seq := e.record(snap.SessionID, KindTick, 0, true, snap)
	res := e.result(KindTick, seq, true)
	res.StarMatch = snap
	e.notify(res)
}

// record stamps the next seq on an action and writes it to the trace.
func (e *Engine) record(sessionID string, kind ActionKind, arg int, applied bool, snap any) int64 {
	seq := e.clock.Next()
	e.writeAction(seq, sessionID, kind, arg, applied, snap)
	return seq
}

func (e *Engine) writeSession(sess store.Session) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.WriteSession(e.ctx, sess); err != nil {
		e.logger.Error("record session failed",
			"session", sess.ID,
			"game", sess.Game,
			"error", err,
		)
	}
}

func (e *Engine) writeAction(seq int64, sessionID string, kind ActionKind, arg int, applied bool, snap any) {
	if e.recorder == nil {
		return
	}
	state, err := json.Marshal(snap)
	if err != nil {
		e.logger.Error("encode snapshot failed", "seq", seq, "kind", kind, "error", err)
		return
	}
	err = e.recorder.WriteAction(e.ctx, store.Action{
		Seq:       seq,
		SessionID: sessionID,
		Kind:      string(kind),
		Arg:       arg,
		Applied:   applied,
		State:     state,
	})
	if err != nil {
		e.logger.Error("record action failed",
			"seq", seq,
			"session", sessionID,
			"kind", kind,
			"error", err,
		)
	}
}

func (e *Engine) result(kind ActionKind, seq int64, applied bool) Result {
	res := Result{Kind: kind, Seq: seq, Applied: applied}
	if e.star != nil {
		res.StarMatch = e.star.Snapshot()
	}
	if e.game != nil {
		res.TicTacToe = e.game.Snapshot()
	}
	return res
}

func (e *Engine) notify(res Result) {
	if e.observer != nil {
		e.observer(res)
	}
}
