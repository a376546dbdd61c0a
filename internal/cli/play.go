package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/render"
	"github.com/roach88/arcade/internal/store"
)

// Games playable from the REPL.
const (
	gameStarMatch = store.GameStarMatch
	gameTicTacToe = store.GameTicTacToe
)

// PlayOptions holds flags for the play commands.
type PlayOptions struct {
	*RootOptions
	TraceDB string
	Seconds int
}

// NewPlayCommand creates the play command and its per-game subcommands.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Long: `Start an interactive game on stdin.

Star Match commands:   select N, restart, quit
Tic-Tac-Toe commands:  move I, restart, reset, quit

Examples:
  arcade play starmatch
  arcade play starmatch --seconds 30 --trace-db ./arcade.db
  arcade play tictactoe`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.TraceDB, "trace-db", "", "record every action to this SQLite database")
	cmd.PersistentFlags().IntVar(&opts.Seconds, "seconds", 0, "Star Match countdown length (default from config)")

	for _, game := range []string{gameStarMatch, gameTicTacToe} {
		cmd.AddCommand(&cobra.Command{
			Use:           game,
			Short:         "Play " + game,
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPlay(opts, game, cmd)
			},
		})
	}

	return cmd
}

// session is one REPL run: the engine, the shared output writer and the
// game being played.
type session struct {
	game   string
	format string
	eng    *engine.Engine

	mu  sync.Mutex
	out io.Writer
}

func runPlay(opts *PlayOptions, game string, cmd *cobra.Command) error {
	cfg := opts.Config
	if cmd.Flags().Changed("seconds") {
		cfg.StarMatch.Seconds = opts.Seconds
	}
	if cmd.Flags().Changed("trace-db") {
		cfg.Trace.DB = opts.TraceDB
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	s := &session{game: game, format: opts.Format, out: cmd.OutOrStdout()}

	engOpts := []engine.EngineOption{
		engine.WithGames(game),
		engine.WithStarMatch(cfg.StarMatch.Seconds, cfg.StarMatch.TickDuration()),
		engine.WithLogger(opts.Logger),
		engine.WithObserver(s.onResult),
	}
	if cfg.Trace.DB != "" {
		st, err := store.Open(cfg.Trace.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer st.Close()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace database", err)
		}
		engOpts = append(engOpts, engine.WithRecorder(st), engine.WithClock(engine.NewClockAt(last)))
		opts.Logger.Debug("recording trace", "db", cfg.Trace.DB, "last_seq", last)
	}
	s.eng = engine.New(append(engOpts, opts.engineOpts...)...)

	errc := make(chan error, 1)
	go func() { errc <- s.eng.Run(ctx) }()
	defer func() {
		s.eng.Stop()
		<-errc
	}()

	if err := s.view(ctx); err != nil {
		return err
	}
	return s.loop(ctx, cmd.InOrStdin())
}

// loop reads one command per line until quit or end of input.
func (s *session) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		s.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		a, err := s.parse(line)
		if err != nil {
			s.printf("%v\n", err)
			continue
		}
		res, err := s.eng.Do(ctx, a)
		if err != nil {
			if engine.IsStopped(err) || errors.Is(err, context.Canceled) {
				return nil
			}
			return WrapExitError(ExitFailure, "engine error", err)
		}
		if !res.Applied {
			s.printf("(no change)\n")
		}
		s.show(res)
	}
	return scanner.Err()
}

// parse maps one REPL line to an engine action.
func (s *session) parse(line string) (engine.Action, error) {
	fields := strings.Fields(line)
	verb, rest := fields[0], fields[1:]

	arg := func() (int, error) {
		if len(rest) != 1 {
			return 0, fmt.Errorf("usage: %s N", verb)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", verb, rest[0])
		}
		return n, nil
	}

	switch s.game {
	case gameStarMatch:
		switch verb {
		case "select", "s":
			n, err := arg()
			if err != nil {
				return engine.Action{}, err
			}
			return engine.SelectNumber(n), nil
		case "restart":
			return engine.Action{Kind: engine.KindRestartStarMatch}, nil
		}
	case gameTicTacToe:
		switch verb {
		case "move", "m":
			n, err := arg()
			if err != nil {
				return engine.Action{}, err
			}
			return engine.MovePiece(n), nil
		case "restart":
			return engine.Action{Kind: engine.KindRestartBoard}, nil
		case "reset":
			return engine.Action{Kind: engine.KindResetScoreboard}, nil
		}
	}
	return engine.Action{}, fmt.Errorf("unknown command %q", verb)
}

func (s *session) view(ctx context.Context) error {
	res, err := s.eng.Do(ctx, engine.Action{Kind: engine.KindView})
	if err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	s.show(res)
	return nil
}

// onResult runs on the engine loop. Only countdown ticks need a redraw;
// the REPL draws everything it submits itself.
func (s *session) onResult(res engine.Result) {
	if res.Kind != engine.KindTick || s.game != gameStarMatch {
		return
	}
	s.show(res)
	s.prompt()
}

func (s *session) show(res engine.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		var v any = res.StarMatch
		if s.game == gameTicTacToe {
			v = res.TicTacToe
		}
		_ = json.NewEncoder(s.out).Encode(v)
		return
	}
	fmt.Fprintln(s.out)
	if s.game == gameTicTacToe {
		_ = render.TicTacToe(s.out, res.TicTacToe)
		return
	}
	_ = render.StarMatch(s.out, res.StarMatch)
}

func (s *session) prompt() {
	if s.format == "json" {
		return
	}
	s.printf("> ")
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
