// Package harness runs scripted play-throughs of the arcade games.
//
// Scenarios drive the real engine loop with a manual timer, a fixed seed
// sequence and sequential IDs, so every run of a scenario produces the
// same trace. The trace can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: starmatch_win
//	description: "Clearing the pad wins the round"
//	game: starmatch
//	seed: 7
//	seconds: 10
//	initial:
//	  stars: 9
//	  available: [4, 5, 9]
//	  candidates: []
//	  seconds_left: 10
//	steps:
//	  - select: 4
//	  - tick: 1
//	  - select: 5
//	  - restart
//	assertions:
//	  - type: round_status
//	    expect: active
//	  - type: applied_count
//	    value: 4
//
// Steps are "select: n", "tick: k" (k countdown intervals, default 1),
// "restart" for Star Match, and "move: i", "restart_board",
// "reset_scoreboard" for Tic-Tac-Toe.
//
// # Assertion Types
//
//   - round_status: Star Match round is active, won or lost
//   - available: Star Match available numbers, exactly
//   - seconds_left: Star Match countdown value
//   - winner: Tic-Tac-Toe winner (X, O or none)
//   - scores: Tic-Tac-Toe scoreboard, exactly
//   - applied_count: number of applied actions in the trace, ticks excluded
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/starmatch_win.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
