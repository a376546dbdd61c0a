package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - show one session's timeline
}

// TraceEvent is one recorded action in a session timeline.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Arg     int    `json:"arg"`
	Applied bool   `json:"applied"`
	State   any    `json:"state,omitempty"`
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID         string `json:"id"`
	Game       string `json:"game"`
	Seed       int64  `json:"seed"`
	StartedSeq int64  `json:"started_seq"`
	Actions    int    `json:"actions"`
}

// TraceResult holds one session's timeline.
type TraceResult struct {
	Session  SessionSummary `json:"session"`
	Timeline []TraceEvent   `json:"timeline"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect a recorded trace",
		Long: `List the sessions recorded in a trace database, or show the
action timeline of one session.

Examples:
  arcade trace --db ./arcade.db
  arcade trace --db ./arcade.db --session 0192f3a1-...
  arcade trace --db ./arcade.db --session 0192f3a1-... --format json -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID to show")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, opts, cmd)
	}

	sess, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	actions, err := st.ReadActions(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read actions", err)
	}

	result := TraceResult{
		Session:  summarize(sess, len(actions)),
		Timeline: buildTimeline(actions, opts.Verbose),
	}

	if opts.Format == "json" {
		return newFormatter(cmd, opts.RootOptions).Success(result)
	}
	outputTraceText(cmd.OutOrStdout(), result)
	return nil
}

func listSessions(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		actions, err := st.ReadActions(ctx, sess.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read actions", err)
		}
		summaries = append(summaries, summarize(sess, len(actions)))
	}

	if opts.Format == "json" {
		return newFormatter(cmd, opts.RootOptions).Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	fmt.Fprintf(w, "%d session(s)\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(w, "  [%d] %-9s %s  seed=%d  actions=%d\n", s.StartedSeq, s.Game, s.ID, s.Seed, s.Actions)
	}
	return nil
}

// buildTimeline converts recorded actions to timeline events. Snapshots
// are only carried in verbose mode.
func buildTimeline(actions []store.Action, verbose bool) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(actions))
	for _, a := range actions {
		ev := TraceEvent{
			Seq:     a.Seq,
			Kind:    a.Kind,
			Arg:     a.Arg,
			Applied: a.Applied,
		}
		if verbose {
			ev.State = a.State
		}
		timeline = append(timeline, ev)
	}
	return timeline
}

func outputTraceText(w io.Writer, result TraceResult) {
	s := result.Session
	fmt.Fprintf(w, "Trace for Session: %s\n", s.ID)
	fmt.Fprintf(w, "Game: %s  Seed: %d  Started: %d\n", s.Game, s.Seed, s.StartedSeq)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		mark := ""
		if !ev.Applied {
			mark = "  (rejected)"
		}
		if hasArg(ev.Kind) {
			fmt.Fprintf(w, "  [%d] %s %d%s\n", ev.Seq, ev.Kind, ev.Arg, mark)
		} else {
			fmt.Fprintf(w, "  [%d] %s%s\n", ev.Seq, ev.Kind, mark)
		}
		if ev.State != nil {
			fmt.Fprintf(w, "       State: %s\n", ev.State)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", s.Actions)
}

func summarize(sess store.Session, actions int) SessionSummary {
	return SessionSummary{
		ID:         sess.ID,
		Game:       sess.Game,
		Seed:       sess.Seed,
		StartedSeq: sess.StartedSeq,
		Actions:    actions,
	}
}

func hasArg(kind string) bool {
	return kind == string(engine.KindSelectNumber) || kind == string(engine.KindMovePiece)
}

// openExisting opens a trace database that must already exist. store.Open
// would silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
