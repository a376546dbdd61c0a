// Package httpapi exposes the engine actions as JSON routes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/arcade/internal/engine"
)

// Doer submits one action to the engine loop.
type Doer interface {
	Do(ctx context.Context, a engine.Action) (engine.Result, error)
}

// Handler serves the JSON routes. Every request becomes one Do call on
// Engine.
type Handler struct {
	Engine Doer
	Logger *slog.Logger
}

// New returns a Handler over e. A nil logger discards request logs.
func New(e Doer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{Engine: e, Logger: logger}
}

// Register adds the Star Match and Tic-Tac-Toe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/starmatch", h.get(engine.KindView))
	mux.HandleFunc("/api/starmatch/select", h.handleSelect)
	mux.HandleFunc("/api/starmatch/restart", h.post(engine.KindRestartStarMatch))
	mux.HandleFunc("/api/tictactoe", h.get(engine.KindView))
	mux.HandleFunc("/api/tictactoe/move", h.handleMove)
	mux.HandleFunc("/api/tictactoe/restart", h.post(engine.KindRestartBoard))
	mux.HandleFunc("/api/tictactoe/reset-scores", h.post(engine.KindResetScoreboard))
}

// Handler returns a mux with every route registered, wrapped in the
// request logger.
func (h *Handler) Handler() http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return requestLogger(h.Logger, mux)
}

type errorResp struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type selectReq struct {
	Number *int `json:"number"`
}

type moveReq struct {
	Cell *int `json:"cell"`
}

func (h *Handler) get(kind engine.ActionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.do(w, r, engine.Action{Kind: kind})
	}
}

func (h *Handler) post(kind engine.ActionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.do(w, r, engine.Action{Kind: kind})
	}
}

// ---- Star Match ----

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Number == nil {
		badRequest(w, "number is required")
		return
	}
	h.do(w, r, engine.SelectNumber(*req.Number))
}

// ---- Tic-Tac-Toe ----

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Cell == nil {
		badRequest(w, "cell is required")
		return
	}
	h.do(w, r, engine.MovePiece(*req.Cell))
}

// do runs the action and writes the result. An illegal move is not an
// error: the response carries applied=false and the unchanged snapshot.
func (h *Handler) do(w http.ResponseWriter, r *http.Request, a engine.Action) {
	res, err := h.Engine.Do(r.Context(), a)
	if err != nil {
		h.Logger.Warn("engine action failed", "kind", a.Kind, "error", err)
		resp := errorResp{Error: err.Error()}
		var ae *engine.ActionError
		if errors.As(err, &ae) {
			resp.Code = string(ae.Code)
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(errorResp{Error: "method not allowed"})
}

func badRequest(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorResp{Error: msg})
}

// statusWriter captures HTTP status and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestLogger logs method, path, status, bytes, and duration.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).Round(time.Millisecond),
		)
	})
}
