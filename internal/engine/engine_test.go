package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/store"
	"github.com/roach88/arcade/internal/tictactoe"
	"github.com/roach88/arcade/internal/timer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedSeeds hands out seeds in order, then repeats the last one.
func fixedSeeds(seeds ...int64) func() int64 {
	var mu sync.Mutex
	i := 0
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		s := seeds[i]
		if i < len(seeds)-1 {
			i++
		}
		return s
	}
}

// startEngine runs an engine on a manual scheduler and stops it at cleanup.
func startEngine(t *testing.T, opts ...EngineOption) (*Engine, *timer.Manual) {
	t.Helper()
	clock := timer.NewManual()
	base := []EngineOption{
		WithScheduler(clock),
		WithIDGenerator(ids.NewSequenceGenerator("id")),
		WithSeedSource(fixedSeeds(7, 11, 13)),
		WithLogger(discardLogger()),
	}
	e := New(append(base, opts...)...)

	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()
	t.Cleanup(func() {
		e.Stop()
		select {
		case <-errc:
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return e, clock
}

func do(t *testing.T, e *Engine, a Action) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := e.Do(ctx, a)
	require.NoError(t, err)
	return res
}

// tick advances the virtual clock by one interval and waits for the loop
// to have processed the firing.
func tick(t *testing.T, e *Engine, clock *timer.Manual) Result {
	t.Helper()
	clock.Advance(starmatch.DefaultTick)
	return do(t, e, Action{Kind: KindView})
}

func TestEngine_ViewOpensBothGames(t *testing.T) {
	e, _ := startEngine(t)

	res := do(t, e, Action{Kind: KindView})

	assert.Equal(t, KindView, res.Kind)
	assert.Zero(t, res.Seq, "view is never stamped")
	assert.Equal(t, "id-1", res.StarMatch.SessionID)
	assert.Equal(t, "id-2", res.TicTacToe.GameID)
	assert.Equal(t, starmatch.RoundActive, res.StarMatch.Status)
	assert.Equal(t, starmatch.DefaultSeconds, res.StarMatch.SecondsLeft)
	assert.Equal(t, tictactoe.X, res.TicTacToe.Next)
}

func TestEngine_SelectNumber(t *testing.T) {
	e, _ := startEngine(t)

	res := do(t, e, SelectNumber(1))
	assert.True(t, res.Applied)
	assert.Equal(t, KindSelectNumber, res.Kind)
	assert.Equal(t, 1, res.Arg)

	// Off-pad numbers are illegal moves, not errors.
	res = do(t, e, SelectNumber(0))
	assert.False(t, res.Applied)
	res = do(t, e, SelectNumber(10))
	assert.False(t, res.Applied)
}

func TestEngine_SeqIncreasesInSubmissionOrder(t *testing.T) {
	e, _ := startEngine(t)

	var last int64
	for _, a := range []Action{
		SelectNumber(1),
		MovePiece(0),
		MovePiece(0),
		{Kind: KindRestartBoard},
		SelectNumber(2),
		{Kind: KindResetScoreboard},
		{Kind: KindRestartStarMatch},
	} {
		res := do(t, e, a)
		assert.Greater(t, res.Seq, last, "action %s", a.Kind)
		last = res.Seq
	}
}

func TestEngine_UnknownAction(t *testing.T) {
	e, _ := startEngine(t)

	_, err := e.Do(context.Background(), Action{Kind: "fly"})
	require.Error(t, err)
	assert.True(t, IsUnknownAction(err))
	assert.False(t, IsStopped(err))

	var ae *ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ActionKind("fly"), ae.Kind)
	assert.Contains(t, ae.Error(), "UNKNOWN_ACTION")
}

func TestEngine_TicksAreSerialized(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks []Result
	)
	e, clock := startEngine(t, WithObserver(func(r Result) {
		if r.Kind == KindTick {
			mu.Lock()
			ticks = append(ticks, r)
			mu.Unlock()
		}
	}))
	do(t, e, Action{Kind: KindView})

	res := tick(t, e, clock)
	assert.Equal(t, starmatch.DefaultSeconds-1, res.StarMatch.SecondsLeft)

	res = tick(t, e, clock)
	assert.Equal(t, starmatch.DefaultSeconds-2, res.StarMatch.SecondsLeft)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ticks, 2)
	assert.Less(t, ticks[0].Seq, ticks[1].Seq)
	assert.Equal(t, starmatch.DefaultSeconds-1, ticks[0].StarMatch.SecondsLeft)
}

func TestEngine_CountdownRunsOut(t *testing.T) {
	e, clock := startEngine(t, WithStarMatch(2, starmatch.DefaultTick))
	do(t, e, Action{Kind: KindView})

	tick(t, e, clock)
	res := tick(t, e, clock)
	assert.Equal(t, 0, res.StarMatch.SecondsLeft)
	assert.Equal(t, starmatch.RoundLost, res.StarMatch.Status)
	assert.Zero(t, clock.Pending(), "a lost round has no countdown")

	res = do(t, e, SelectNumber(1))
	assert.False(t, res.Applied, "a lost round accepts no clicks")
}

func TestEngine_RestartStarMatch(t *testing.T) {
	e, clock := startEngine(t)
	first := do(t, e, Action{Kind: KindView})
	tick(t, e, clock)

	res := do(t, e, Action{Kind: KindRestartStarMatch})
	assert.True(t, res.Applied)
	assert.NotEqual(t, first.StarMatch.SessionID, res.StarMatch.SessionID)
	assert.Equal(t, "id-3", res.StarMatch.SessionID)
	assert.Equal(t, starmatch.DefaultSeconds, res.StarMatch.SecondsLeft)
	assert.Equal(t, 1, clock.Pending(), "only the new session's countdown is live")
}

func TestEngine_TicTacToeFlow(t *testing.T) {
	e, _ := startEngine(t)

	// X: 0,1,2  O: 3,4
	var res Result
	for _, c := range []int{0, 3, 1, 4, 2} {
		res = do(t, e, MovePiece(c))
		require.True(t, res.Applied)
	}
	assert.Equal(t, tictactoe.X, res.TicTacToe.Winner)
	assert.Equal(t, 1, res.TicTacToe.Scores.XWins)

	res = do(t, e, MovePiece(5))
	assert.False(t, res.Applied)
	assert.Equal(t, 5, res.Arg)

	res = do(t, e, Action{Kind: KindRestartBoard, Arg: 3})
	assert.Zero(t, res.Arg, "only select and move carry an argument")

	res = do(t, e, Action{Kind: KindRestartBoard})
	assert.Equal(t, 1, res.TicTacToe.Scores.XWins)
	assert.False(t, res.TicTacToe.Terminal)

	res = do(t, e, Action{Kind: KindResetScoreboard})
	assert.Equal(t, tictactoe.Scoreboard{}, res.TicTacToe.Scores)
}

func TestEngine_StopRejectsFurtherActions(t *testing.T) {
	e := New(
		WithScheduler(timer.NewManual()),
		WithSeedSource(fixedSeeds(1)),
		WithLogger(discardLogger()),
	)
	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()

	do(t, e, Action{Kind: KindView})
	e.Stop()
	require.NoError(t, <-errc)

	_, err := e.Do(context.Background(), Action{Kind: KindView})
	assert.True(t, IsStopped(err))
	<-e.Done()
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	clock := timer.NewManual()
	e := New(WithScheduler(clock), WithSeedSource(fixedSeeds(1)), WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	do(t, e, Action{Kind: KindView})
	require.Equal(t, 1, clock.Pending())
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Zero(t, clock.Pending(), "shutdown cancels the countdown")

	_, err := e.Do(context.Background(), Action{Kind: KindView})
	assert.True(t, IsStopped(err))
}

func TestEngine_RunTwice(t *testing.T) {
	e, _ := startEngine(t)
	do(t, e, Action{Kind: KindView})

	assert.Error(t, e.Run(context.Background()))
}

func TestEngine_DoBeforeRunHonoursContext(t *testing.T) {
	e := New(WithScheduler(timer.NewManual()), WithLogger(discardLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Do(ctx, Action{Kind: KindView})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingRecorder struct{ calls int }

func (r *failingRecorder) WriteSession(context.Context, store.Session) error {
	r.calls++
	return errors.New("disk full")
}

func (r *failingRecorder) WriteAction(context.Context, store.Action) error {
	r.calls++
	return errors.New("disk full")
}

func TestEngine_RecordFailureDoesNotStopPlay(t *testing.T) {
	rec := &failingRecorder{}
	e, _ := startEngine(t, WithRecorder(rec))

	res := do(t, e, SelectNumber(1))
	assert.True(t, res.Applied)
	res = do(t, e, MovePiece(4))
	assert.True(t, res.Applied)
}

func TestEngine_ResumesClock(t *testing.T) {
	e, _ := startEngine(t, WithClock(NewClockAt(100)))

	res := do(t, e, SelectNumber(1))
	// 101 and 102 went to the two opening records.
	assert.Equal(t, int64(103), res.Seq)
}

func TestEngine_WithGamesOpensOnlyThoseGames(t *testing.T) {
	st := setupTestStore(t)
	e, clock := startEngine(t, WithGames(store.GameTicTacToe), WithRecorder(st))

	res := do(t, e, Action{Kind: KindView})
	assert.Equal(t, "id-1", res.TicTacToe.GameID)
	assert.Empty(t, res.StarMatch.SessionID)
	assert.Zero(t, clock.Pending(), "no countdown without star match")

	_, err := e.Do(context.Background(), SelectNumber(1))
	require.Error(t, err)
	assert.True(t, IsGameDisabled(err))
	assert.False(t, IsUnknownAction(err))

	_, err = e.Do(context.Background(), Action{Kind: KindRestartStarMatch})
	assert.True(t, IsGameDisabled(err))

	res = do(t, e, MovePiece(4))
	assert.True(t, res.Applied)
	assert.Equal(t, int64(2), res.Seq)

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, store.GameTicTacToe, sessions[0].Game)
}

func TestEngine_WithGamesStarMatchOnly(t *testing.T) {
	e, clock := startEngine(t, WithGames(store.GameStarMatch))

	res := do(t, e, Action{Kind: KindView})
	assert.Equal(t, "id-1", res.StarMatch.SessionID)
	assert.Empty(t, res.TicTacToe.GameID)

	res = tick(t, e, clock)
	assert.Equal(t, starmatch.DefaultSeconds-1, res.StarMatch.SecondsLeft)

	_, err := e.Do(context.Background(), MovePiece(0))
	assert.True(t, IsGameDisabled(err))
}
