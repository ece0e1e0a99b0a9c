//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/guialv3s/InfinityAIRPG/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func TestMain(m *testing.M) {
	fmt.Printf("Running InfinityAIRPG Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())

	code := m.Run()
	os.Exit(code)
}

func TestIntegrationSuites(t *testing.T) {
	if *caseFlag != "" {
		t.Skip("Running a single suite (-case)")
	}

	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	runSuites(t, testFiles, runner.ErrorHandlingContinue)
}

// TestSingleSuite allows running individual test suites for debugging
// Supports multiple cases comma-separated: -case "case1,case2,case3"
func TestSingleSuite(t *testing.T) {
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}

	var suiteFiles []string
	for _, caseName := range strings.Split(*caseFlag, ",") {
		caseName = strings.TrimSpace(caseName)
		if caseName == "" {
			continue
		}
		suiteFile := filepath.Join("cases", caseName)
		if !strings.HasSuffix(suiteFile, ".json") {
			suiteFile += ".json"
		}
		suiteFiles = append(suiteFiles, suiteFile)
	}
	if len(suiteFiles) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	runSuites(t, suiteFiles, runner.ErrorHandlingMode(*errFlag))
}

func runSuites(t *testing.T, files []string, mode runner.ErrorHandlingMode) {
	testRunner := runner.NewRunner(apiBaseURL())
	testRunner.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 60)) * time.Second
	testRunner.ErrorHandlingMode = mode
	testRunner.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed, passed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := testRunner.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}
		t.Logf("Character: %s", result.Character.String())

		for _, stepResult := range result.Results {
			if stepResult.Success {
				t.Logf("   ✓ %s (%v)", stepResult.StepName, stepResult.Duration)
			} else {
				t.Errorf("   ✗ %s: %v", stepResult.StepName, stepResult.Error)
			}
		}

		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
			if mode == runner.ErrorHandlingExit {
				break
			}
		} else {
			passed = append(passed, job.Name)
			t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(jobs), job.Name, result.Duration)
		}
		t.Logf("--------------------------------")
	}

	t.Logf("Integration Test Summary:")
	t.Logf("   Passed: %d", len(passed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		for _, failure := range failed {
			t.Logf("   - %s", failure)
		}
		t.Fatalf("Integration tests failed")
	}
}

// Helper functions

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") && !strings.HasPrefix(info.Name(), "_") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func getIntEnv(name string, defaultValue int) int {
	str := os.Getenv(name)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return val
}
