package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/timer"
)

// testEngineOpts pins everything nondeterministic: no countdown fires,
// IDs are sequential and every Star Match session draws from seed 7.
func testEngineOpts(prefix string) []engine.EngineOption {
	return []engine.EngineOption{
		engine.WithScheduler(timer.NewManual()),
		engine.WithIDGenerator(ids.NewSequenceGenerator(prefix)),
		engine.WithSeedSource(func() int64 { return 7 }),
	}
}

// execute runs the CLI with an empty environment and returns stdout.
func execute(t *testing.T, prefix, stdin string, args ...string) (string, error) {
	t.Helper()

	opts := &RootOptions{
		Environ:    map[string]string{},
		engineOpts: testEngineOpts(prefix),
	}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "arcade.db")
}
