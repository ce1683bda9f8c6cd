package runner

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
)

// Special action values that do not post a turn
const (
	ResetGameStateAction = "RESET_GAMESTATE"
)

// Seed is the session a suite starts from.
type Seed struct {
	CampaignID  string `json:"campaign_id"`
	CharacterID string `json:"character_id,omitempty"`
}

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Seed  Seed       `json:"seed"`            // Used for regular tests
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one POST /v1/gamestate/{id}/{action} and what must hold after it.
// Use action: "RESET_GAMESTATE" to start over from a fresh seeded session.
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Action       string          `json:"action"`
	Body         json.RawMessage `json:"body,omitempty"`
	Expectations Expectations    `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Turn result
	Status          *int                  `json:"status,omitempty"`
	Success         *bool                 `json:"success,omitempty"`
	Reason          *engine.FailureReason `json:"reason,omitempty"`
	MessageContains []string              `json:"message_contains,omitempty"`

	// GameState properties - aligned with pkg/state/campaign_state.go.
	// Set fields compare order independent; an empty list asserts an empty set.
	CurrentRoomID     *string         `json:"current_room_id,omitempty"`
	Location          *string         `json:"location,omitempty"`
	VisitedRooms      []string        `json:"visited_rooms,omitempty"`
	DiscoveredExits   []string        `json:"discovered_exits,omitempty"`
	UnlockedExits     []string        `json:"unlocked_exits,omitempty"`
	CollectedTreasure []string        `json:"collected_treasure,omitempty"`
	Inventory         []string        `json:"inventory,omitempty"`
	QuestFlags        map[string]bool `json:"quest_flags,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Message  string
	IsReset  bool // True if this was a RESET_GAMESTATE step (should not count toward pass/fail metrics)
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
	GameState uuid.UUID // ID of the gamestate used for this test
}
