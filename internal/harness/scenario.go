package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/arcade/internal/starmatch"
)

// Game names accepted in scenario files.
const (
	GameStarMatch = "starmatch"
	GameTicTacToe = "tictactoe"
)

// Scenario is one scripted play-through with assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Game is "starmatch" or "tictactoe".
	Game string `yaml:"game"`

	// Seed is the first Star Match seed; each restart uses the next one.
	Seed int64 `yaml:"seed,omitempty"`

	// Seconds is the countdown length of every Star Match session.
	// Zero means starmatch.DefaultSeconds.
	Seconds int `yaml:"seconds,omitempty"`

	// Initial replaces the first Star Match puzzle.
	Initial *InitialState `yaml:"initial,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// InitialState is a Star Match puzzle written out in a scenario.
type InitialState struct {
	Stars       int   `yaml:"stars"`
	Available   []int `yaml:"available"`
	Candidates  []int `yaml:"candidates"`
	SecondsLeft int   `yaml:"seconds_left"`
}

// Puzzle validates the state and builds the puzzle.
func (s InitialState) Puzzle() (starmatch.Puzzle, error) {
	st := starmatch.State{
		Stars:       s.Stars,
		Available:   append([]int{}, s.Available...),
		Candidates:  append([]int{}, s.Candidates...),
		SecondsLeft: s.SecondsLeft,
	}
	return starmatch.FromState(st)
}

// Step operations.
const (
	OpSelect          = "select"
	OpTick            = "tick"
	OpRestart         = "restart"
	OpMove            = "move"
	OpRestartBoard    = "restart_board"
	OpResetScoreboard = "reset_scoreboard"
)

// stepGame maps each operation to the game it drives.
var stepGame = map[string]string{
	OpSelect:          GameStarMatch,
	OpTick:            GameStarMatch,
	OpRestart:         GameStarMatch,
	OpMove:            GameTicTacToe,
	OpRestartBoard:    GameTicTacToe,
	OpResetScoreboard: GameTicTacToe,
}

// Step is one scripted action. In YAML it is either a bare operation
// ("restart") or a single-key mapping ("select: 4").
type Step struct {
	Op  string
	Arg int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Op = node.Value
		s.Arg = 0
		if s.Op == OpTick {
			s.Arg = 1
		}
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: step must have exactly one key", node.Line)
		}
		s.Op = node.Content[0].Value
		if err := node.Content[1].Decode(&s.Arg); err != nil {
			return fmt.Errorf("line %d: step %s: %w", node.Line, s.Op, err)
		}
	default:
		return fmt.Errorf("line %d: step must be a name or a single-key mapping", node.Line)
	}
	if _, ok := stepGame[s.Op]; !ok {
		return fmt.Errorf("line %d: unknown step %q", node.Line, s.Op)
	}
	return nil
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type selects the check; see the package documentation.
	Type string `yaml:"type"`

	// Expect is the round status (round_status) or the winner (winner).
	Expect string `yaml:"expect,omitempty"`

	// Numbers is the exact available set (available).
	Numbers *[]int `yaml:"numbers,omitempty"`

	// Scores is the exact scoreboard (scores).
	Scores *Scores `yaml:"scores,omitempty"`

	// Value is the expected count (seconds_left, applied_count).
	Value *int `yaml:"value,omitempty"`
}

// Scores is an expected Tic-Tac-Toe scoreboard.
type Scores struct {
	XWins int `yaml:"x_wins"`
	OWins int `yaml:"o_wins"`
	Draws int `yaml:"draws"`
}

// Assertion type constants.
const (
	AssertRoundStatus  = "round_status"
	AssertAvailable    = "available"
	AssertSecondsLeft  = "seconds_left"
	AssertWinner       = "winner"
	AssertScores       = "scores"
	AssertAppliedCount = "applied_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Game != GameStarMatch && s.Game != GameTicTacToe {
		return fmt.Errorf("game must be %q or %q, got %q", GameStarMatch, GameTicTacToe, s.Game)
	}

	if s.Seconds < 0 || s.Seconds > 3600 {
		return fmt.Errorf("seconds must be between 1 and 3600")
	}

	if s.Initial != nil {
		if s.Game != GameStarMatch {
			return fmt.Errorf("initial is only valid for %s", GameStarMatch)
		}
		if _, err := s.Initial.Puzzle(); err != nil {
			return fmt.Errorf("initial: %w", err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		game, ok := stepGame[step.Op]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown step %q", i, step.Op)
		}
		if game != s.Game {
			return fmt.Errorf("steps[%d]: %s is a %s step", i, step.Op, game)
		}
		if step.Op == OpTick && step.Arg < 1 {
			return fmt.Errorf("steps[%d]: tick count must be positive", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, s.Game, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, game string, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	var needs string
	switch a.Type {
	case AssertRoundStatus:
		needs = GameStarMatch
		switch starmatch.RoundStatus(a.Expect) {
		case starmatch.RoundActive, starmatch.RoundWon, starmatch.RoundLost:
		default:
			return fmt.Errorf("assertions[%d]: expect must be active, won or lost for round_status", index)
		}
	case AssertAvailable:
		needs = GameStarMatch
		if a.Numbers == nil {
			return fmt.Errorf("assertions[%d]: numbers is required for available", index)
		}
	case AssertSecondsLeft:
		needs = GameStarMatch
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for seconds_left", index)
		}
	case AssertWinner:
		needs = GameTicTacToe
		switch a.Expect {
		case "X", "O", "none":
		default:
			return fmt.Errorf("assertions[%d]: expect must be X, O or none for winner", index)
		}
	case AssertScores:
		needs = GameTicTacToe
		if a.Scores == nil {
			return fmt.Errorf("assertions[%d]: scores is required for scores", index)
		}
	case AssertAppliedCount:
		if a.Value == nil || *a.Value < 0 {
			return fmt.Errorf("assertions[%d]: non-negative value is required for applied_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if needs != "" && needs != game {
		return fmt.Errorf("assertions[%d]: %s only applies to %s", index, a.Type, needs)
	}
	return nil
}
