package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/timer"
)

// runTimeout bounds a whole scenario. Scenarios run on virtual time, so
// only a stuck loop comes near it.
const runTimeout = 10 * time.Second

// harness holds the per-run wiring.
type harness struct {
	game  string
	eng   *engine.Engine
	clock *timer.Manual

	mu    sync.Mutex
	trace []TraceEvent
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh engine on a manual scheduler, a seed sequence
// starting at scenario.Seed, and IDs derived from the scenario name.
// Assertion failures are reported in Result.Errors; the error return is
// for runs that could not complete.
func Run(scenario *Scenario) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	h := &harness{game: scenario.Game, clock: timer.NewManual()}

	seconds := scenario.Seconds
	if seconds == 0 {
		seconds = starmatch.DefaultSeconds
	}
	opts := []engine.EngineOption{
		engine.WithScheduler(h.clock),
		engine.WithIDGenerator(ids.NewSequenceGenerator(scenario.Name)),
		engine.WithSeedSource(seedSequence(scenario.Seed)),
		engine.WithStarMatch(seconds, starmatch.DefaultTick),
		engine.WithObserver(h.observe),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.Initial != nil {
		p, err := scenario.Initial.Puzzle()
		if err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
		opts = append(opts, engine.WithInitialPuzzle(p))
	}
	h.eng = engine.New(opts...)

	errc := make(chan error, 1)
	go func() { errc <- h.eng.Run(ctx) }()
	defer func() {
		h.eng.Stop()
		<-errc
	}()

	// The loop opens both games before it serves its first event, so once
	// this view returns the countdown is scheduled and a leading tick step
	// has something to fire.
	if _, err := h.eng.Do(ctx, engine.Action{Kind: engine.KindView}); err != nil {
		return nil, fmt.Errorf("open games: %w", err)
	}

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
	}

	final, err := h.eng.Do(ctx, engine.Action{Kind: engine.KindView})
	if err != nil {
		return nil, fmt.Errorf("final view: %w", err)
	}

	result := NewResult()
	result.Final = final
	h.mu.Lock()
	result.Trace = append(result.Trace, h.trace...)
	h.mu.Unlock()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. A tick advances virtual time one interval at a
// time and waits for the loop to catch up before the next one.
func (h *harness) execute(ctx context.Context, step Step) error {
	var a engine.Action
	switch step.Op {
	case OpSelect:
		a = engine.SelectNumber(step.Arg)
	case OpRestart:
		a = engine.Action{Kind: engine.KindRestartStarMatch}
	case OpMove:
		a = engine.MovePiece(step.Arg)
	case OpRestartBoard:
		a = engine.Action{Kind: engine.KindRestartBoard}
	case OpResetScoreboard:
		a = engine.Action{Kind: engine.KindResetScoreboard}
	case OpTick:
		for i := 0; i < step.Arg; i++ {
			h.clock.Advance(starmatch.DefaultTick)
			if _, err := h.eng.Do(ctx, engine.Action{Kind: engine.KindView}); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown step %q", step.Op)
	}
	_, err := h.eng.Do(ctx, a)
	return err
}

// observe runs on the engine loop goroutine.
func (h *harness) observe(r engine.Result) {
	if !belongsTo(h.game, r.Kind) {
		return
	}
	h.mu.Lock()
	h.trace = append(h.trace, newTraceEvent(h.game, r))
	h.mu.Unlock()
}

func belongsTo(game string, kind engine.ActionKind) bool {
	switch kind {
	case engine.KindSelectNumber, engine.KindRestartStarMatch, engine.KindTick:
		return game == GameStarMatch
	case engine.KindMovePiece, engine.KindRestartBoard, engine.KindResetScoreboard:
		return game == GameTicTacToe
	default:
		return false
	}
}

// seedSequence returns start, start+1, start+2, ...
func seedSequence(start int64) func() int64 {
	var mu sync.Mutex
	next := start
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		s := next
		next++
		return s
	}
}
