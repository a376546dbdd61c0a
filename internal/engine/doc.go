// Package engine implements the arcade's single-writer event loop.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Presentation actions (from the CLI REPL or the HTTP adapter) and
// countdown timer firings all go through one FIFO queue, and one goroutine
// applies them. This gives:
//   - ticks serialized with user clicks, so the lock-free game engines never
//     see concurrent access
//   - a total order of actions for the trace
//   - replayable sessions
//
// Event Processing Flow:
//  1. Do() enqueues an action with a reply channel; a timer firing enqueues
//     its callback
//  2. Run() dequeues events one at a time
//  3. apply() routes the action to the Star Match session or the
//     Tic-Tac-Toe game
//  4. The action and its snapshot are stamped with Clock.Next() and written
//     to the Recorder
//  5. The result goes back to the caller and to the observer
//
// Illegal moves are recorded with applied=false; they are not errors.
//
// Logical Clock:
// Recorded actions are ordered by seq from Clock.Next(), never by
// wall-clock time.
//
// Replay:
// Replay() rebuilds a recorded session from its seed on a manual scheduler
// and compares every recomputed snapshot with the recorded one.
package engine
