package store

import "encoding/json"

// Game names as stored in sessions.game.
const (
	GameStarMatch = "starmatch"
	GameTicTacToe = "tictactoe"
)

// Session is one recorded game instance.
type Session struct {
	ID         string `json:"id"`
	Game       string `json:"game"`
	Seed       int64  `json:"seed"`
	StartedSeq int64  `json:"started_seq"`
}

// Action is one processed action and the snapshot it produced.
type Action struct {
	Seq       int64           `json:"seq"`
	SessionID string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Arg       int             `json:"arg"`
	Applied   bool            `json:"applied"`
	State     json.RawMessage `json:"state"`
}
