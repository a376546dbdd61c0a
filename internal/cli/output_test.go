package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), "output: %s", buf.String())
	return resp
}

func TestOutputFormatter_JSONEnvelopes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(map[string]int{"sessions": 4}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, map[string]any{"sessions": float64(4)}, resp.Data)
		assert.Nil(t, resp.Error)
	})

	t.Run("error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Error("E_NOT_FOUND", "session not found", map[string]string{"db": "arcade.db"}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "error", resp.Status)
		assert.Nil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E_NOT_FOUND", resp.Error.Code)
		assert.Equal(t, "session not found", resp.Error.Message)
		assert.NotNil(t, resp.Error.Details)
	})

	t.Run("failure keeps payload", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Failure(CodeDeterminism, "determinism verification failed", map[string]int{"sessions": 2}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "error", resp.Status)
		assert.NotNil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeDeterminism, resp.Error.Code)
	})
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		write   func(f *OutputFormatter) error
		want    []string
		notWant []string
	}{
		{
			name:  "success",
			write: func(f *OutputFormatter) error { return f.Success("All sessions verified") },
			want:  []string{"All sessions verified"},
		},
		{
			name:    "error",
			write:   func(f *OutputFormatter) error { return f.Error("E_REPLAY", "replay diverged", "seq 9") },
			want:    []string{"Error [E_REPLAY]: replay diverged"},
			notWant: []string{"Details:"},
		},
		{
			name:    "error verbose",
			verbose: true,
			write:   func(f *OutputFormatter) error { return f.Error("E_REPLAY", "replay diverged", "seq 9") },
			want:    []string{"Error [E_REPLAY]", "Details: seq 9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, tt.write(f))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	t.Run("quiet", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		f.VerboseLog("opening %s", "arcade.db")
		assert.Empty(t, buf.String())
	})

	t.Run("falls back to Writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}
		f.VerboseLog("opening %s", "arcade.db")
		assert.Equal(t, "opening arcade.db\n", buf.String())
	})

	t.Run("uses ErrWriter", func(t *testing.T) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
		f.VerboseLog("replaying %d session(s)", 3)
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "replaying 3 session(s)")
	})
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flags")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "replay", errors.New("diverged")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: replay: diverged", wrapped.Error())
}
