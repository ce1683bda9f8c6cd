// Package runner drives the dungeon-engine HTTP API through JSON test cases:
// seed a session, post turns, check the results and the stored game state.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running dungeon-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Logger:            func(string, ...any) {},
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
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
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

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	gameStateID, err := r.seedGameState(ctx, suite.Seed)
	if err != nil {
		result.Error = fmt.Errorf("failed to seed gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameState = gameStateID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, &gameStateID, step, suite.Seed)
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
	result.GameState = gameStateID

	result.Duration = time.Since(start)
	return result, result.Error
}

// seedGameState creates a new session via POST /v1/gamestate
func (r *Runner) seedGameState(ctx context.Context, seed Seed) (uuid.UUID, error) {
	var created state.GameState
	status, err := r.do(ctx, http.MethodPost, "/v1/gamestate", seed, &created)
	if err != nil {
		return uuid.UUID{}, err
	}
	if status != http.StatusCreated {
		return uuid.UUID{}, fmt.Errorf("create gamestate returned %d", status)
	}
	return created.ID, nil
}

// turnResponse is the part of every turn result the runner checks.
type turnResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Reason  engine.FailureReason `json:"reason"`
	Error   string               `json:"error"`
}

// runStep executes a single test step and checks expectations. A reset step
// replaces *gameStateID with a freshly seeded session.
func (r *Runner) runStep(ctx context.Context, gameStateID *uuid.UUID, step TestStep, seed Seed) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	fail := func(err error) TestResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	var resp turnResponse
	var status int
	if step.Action == ResetGameStateAction {
		id, err := r.seedGameState(ctx, seed)
		if err != nil {
			return fail(fmt.Errorf("failed to reset gamestate: %w", err))
		}
		_ = r.deleteGameState(ctx, *gameStateID)
		*gameStateID = id
		result.IsReset = true
		resp.Success, status = true, http.StatusCreated
	} else {
		var body any
		if len(step.Body) > 0 {
			body = step.Body
		} else {
			body = struct{}{}
		}
		var err error
		status, err = r.do(ctx, http.MethodPost, "/v1/gamestate/"+gameStateID.String()+"/"+step.Action, body, &resp)
		if err != nil {
			return fail(fmt.Errorf("failed to post %s: %w", step.Action, err))
		}
	}
	result.Message = resp.Message
	if resp.Message == "" {
		result.Message = resp.Error
	}

	post, err := r.getGameState(ctx, *gameStateID)
	if err != nil {
		return fail(fmt.Errorf("failed to get gamestate after step: %w", err))
	}

	if err := checkExpectations(step.Expectations, status, resp, post); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// getGameState retrieves the current gamestate
func (r *Runner) getGameState(ctx context.Context, gameStateID uuid.UUID) (*state.GameState, error) {
	var gs state.GameState
	status, err := r.do(ctx, http.MethodGet, "/v1/gamestate/"+gameStateID.String(), nil, &gs)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get gamestate returned %d", status)
	}
	return &gs, nil
}

func (r *Runner) deleteGameState(ctx context.Context, gameStateID uuid.UUID) error {
	_, err := r.do(ctx, http.MethodDelete, "/v1/gamestate/"+gameStateID.String(), nil, nil)
	return err
}

// do sends body as JSON and decodes a JSON response into out when non-nil.
// Non-2xx responses are returned with their status, not as errors.
func (r *Runner) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s %s: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close response body: %v", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %d response %q: %w", resp.StatusCode, data, err)
		}
	}
	return resp.StatusCode, nil
}

// checkExpectations validates the test expectations against the turn result
// and the stored gamestate
func checkExpectations(exp Expectations, status int, resp turnResponse, post *state.GameState) error {
	if exp.Status != nil && status != *exp.Status {
		return fmt.Errorf("expected status %d, got %d (%s%s)", *exp.Status, status, resp.Message, resp.Error)
	}
	if exp.Success != nil && resp.Success != *exp.Success {
		return fmt.Errorf("expected success %t, got %t: %s%s", *exp.Success, resp.Success, resp.Message, resp.Error)
	}
	if exp.Reason != nil && resp.Reason != *exp.Reason {
		return fmt.Errorf("expected reason %q, got %q", *exp.Reason, resp.Reason)
	}
	lowerMessage := strings.ToLower(resp.Message)
	for _, want := range exp.MessageContains {
		if !strings.Contains(lowerMessage, strings.ToLower(want)) {
			return fmt.Errorf("expected message to contain '%s', got %q", want, resp.Message)
		}
	}

	cs := post.Campaign
	if cs == nil {
		return fmt.Errorf("gamestate %s has no campaign state", post.ID)
	}
	if exp.CurrentRoomID != nil && cs.CurrentRoomID != *exp.CurrentRoomID {
		return fmt.Errorf("expected current_room_id %s, got %s", *exp.CurrentRoomID, cs.CurrentRoomID)
	}
	if exp.Location != nil && post.World.Location != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, post.World.Location)
	}

	sets := []struct {
		name     string
		expected []string
		actual   []string
	}{
		{"visited_rooms", exp.VisitedRooms, cs.VisitedRooms.Sorted()},
		{"discovered_exits", exp.DiscoveredExits, cs.DiscoveredExits.Sorted()},
		{"unlocked_exits", exp.UnlockedExits, cs.UnlockedExits.Sorted()},
		{"collected_treasure", exp.CollectedTreasure, cs.CollectedTreasure.Sorted()},
		{"inventory", exp.Inventory, post.Player.Inventory},
	}
	for _, s := range sets {
		if s.expected == nil {
			continue
		}
		if err := sameItems(s.name, s.expected, s.actual); err != nil {
			return err
		}
	}

	for name, want := range exp.QuestFlags {
		got, exists := cs.QuestFlags[name]
		if !exists {
			return fmt.Errorf("expected quest flag %s to be set, but it doesn't exist", name)
		}
		if got != want {
			return fmt.Errorf("expected quest flag %s to be %t, got %t", name, want, got)
		}
	}
	return nil
}

// sameItems compares two lists ignoring order.
func sameItems(name string, expected, actual []string) error {
	want := slices.Sorted(slices.Values(expected))
	got := slices.Sorted(slices.Values(actual))
	for _, item := range want {
		if !slices.Contains(got, item) {
			return fmt.Errorf("expected %s to contain '%s', but it's missing. Actual %s: %v", name, item, name, actual)
		}
	}
	if !slices.Equal(want, got) {
		return fmt.Errorf("%s mismatch. Expected: %v, Actual: %v", name, want, got)
	}
	return nil
}
