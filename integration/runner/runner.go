package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guialv3s/InfinityAIRPG/pkg/character"
	"github.com/guialv3s/InfinityAIRPG/pkg/chat"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running API and worker
type Runner struct {
	BaseURL           string
	PlayerID          string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		PlayerID:          "integration",
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           TurnTimeout,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite creates a fresh character and executes every step against it
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	// a new campaign per run keeps suites independent
	key := character.Key{PlayerID: r.PlayerID, CampaignID: uuid.New().String()}
	result.Character = key

	stream, err := OpenEventStream(ctx, r.BaseURL, key)
	if err != nil {
		result.Error = fmt.Errorf("failed to open event stream: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	defer stream.Close()

	if err := r.seedCharacter(ctx, stream, key, suite.Character); err != nil {
		result.Error = fmt.Errorf("failed to seed character: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, stream, key, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// seedCharacter creates the character and applies the seed level, if any
func (r *Runner) seedCharacter(ctx context.Context, stream *EventStream, key character.Key, seed SeedCharacter) error {
	if seed.Name == "" {
		seed.Name = "Tester"
	}
	if seed.Class == "" {
		seed.Class = "Fighter"
	}
	if err := CreateCharacter(ctx, r.Client, r.BaseURL, key, seed); err != nil {
		return err
	}
	if seed.Level == nil {
		return nil
	}

	requestID, err := PostAdminAsync(ctx, r.Client, r.BaseURL, key, *seed.Level)
	if err != nil {
		return err
	}
	_, err = stream.WaitFor(ctx, requestID, r.Timeout)
	return err
}

// runStep executes a single test step and checks expectations
// Will retry once on timeout errors without backoff
func (r *Runner) runStep(ctx context.Context, stream *EventStream, key character.Key, step TestStep) TestResult {
	var result TestResult
	for attempt := 1; attempt <= 2; attempt++ {
		result = r.executeStep(ctx, stream, key, step)
		if result.Success || !errors.Is(result.Error, ErrTimeout) {
			return result
		}
		r.Logger("    Timeout detected, retrying step: %s", step.Name)
	}
	return result
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, stream *EventStream, key character.Key, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}
	fail := func(err error) TestResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	requestID, err := PostTurnAsync(ctx, r.Client, r.BaseURL, key, step.UserPrompt)
	if err != nil {
		return fail(fmt.Errorf("failed to post turn: %w", err))
	}
	result.RequestID = requestID

	resp, err := stream.WaitFor(ctx, requestID, r.Timeout)
	if err != nil {
		return fail(fmt.Errorf("failed waiting for turn: %w", err))
	}
	result.ResponseText = resp.Message

	post, err := GetCharacter(ctx, r.Client, r.BaseURL, key)
	if err != nil {
		return fail(fmt.Errorf("failed to get character after turn: %w", err))
	}

	if err := CheckExpectations(step.Expectations, post, resp); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// CheckExpectations validates the expectations against the character and
// the turn result
func CheckExpectations(exp Expectations, post *character.Character, resp *chat.TurnResponse) error {
	if exp.Level != nil && post.Level != *exp.Level {
		return fmt.Errorf("expected level %d, got %d", *exp.Level, post.Level)
	}
	if exp.MinLevel != nil && post.Level < *exp.MinLevel {
		return fmt.Errorf("expected level >= %d, got %d", *exp.MinLevel, post.Level)
	}
	if exp.Gold != nil && post.Gold != *exp.Gold {
		return fmt.Errorf("expected gold %d, got %d", *exp.Gold, post.Gold)
	}
	if exp.MinGold != nil && post.Gold < *exp.MinGold {
		return fmt.Errorf("expected gold >= %d, got %d", *exp.MinGold, post.Gold)
	}
	if exp.Health != nil && post.Resources.Health != *exp.Health {
		return fmt.Errorf("expected health %d, got %d", *exp.Health, post.Resources.Health)
	}

	for _, name := range exp.Inventory {
		if character.FindItem(post.Inventory, name) < 0 {
			return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", name, itemNames(post.Inventory))
		}
	}
	for _, status := range exp.Status {
		if !post.HasStatus(status) {
			return fmt.Errorf("expected status '%s', got %v", status, post.Status)
		}
	}

	if exp.Changed != nil && resp.Changed != *exp.Changed {
		return fmt.Errorf("expected changed to be %t, got %t", *exp.Changed, resp.Changed)
	}

	responseText := resp.Message
	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	if exp.ResponseMinLength != nil && len(responseText) < *exp.ResponseMinLength {
		return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
	}
	if exp.ResponseMaxLength != nil && len(responseText) > *exp.ResponseMaxLength {
		return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
	}

	return nil
}

func itemNames(items []character.Item) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}
