package runner

import (
	"time"

	"github.com/guialv3s/InfinityAIRPG/pkg/character"
)

// SeedCharacter is the creation request sent before the first step.
// Level, when set, is applied through the admin endpoint.
type SeedCharacter struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Race  string `json:"race,omitempty"`
	Theme string `json:"theme,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Level *int   `json:"level,omitempty"`
}

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name      string        `json:"name"`
	Character SeedCharacter `json:"character,omitempty"` // Used for regular tests
	Steps     []TestStep    `json:"steps,omitempty"`     // Used for regular tests
	Cases     []string      `json:"cases,omitempty"`     // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single turn and its expected outcomes
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	UserPrompt   string       `json:"user_prompt"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Character properties, checked against GET /v1/character
	Level     *int     `json:"level,omitempty"`
	MinLevel  *int     `json:"min_level,omitempty"`
	Gold      *int     `json:"gold,omitempty"`
	MinGold   *int     `json:"min_gold,omitempty"`
	Health    *int     `json:"health,omitempty"`
	Inventory []string `json:"inventory,omitempty"` // must be present, order independent
	Status    []string `json:"status,omitempty"`    // must be present
	Changed   *bool    `json:"changed,omitempty"`   // reported by the turn result

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	RequestID    string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	Character character.Key // the character created for this run
}
