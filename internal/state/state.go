// Package state is the durable per-session JSON document (spec.md §4.A):
// atomic writes, advisory locking, and gate/subagent bookkeeping. It
// plays the role hooks/lib/session/state.go plays for the teacher —
// a thin, well-named wrapper over the actual persistence mechanics —
// except here the persistence mechanics live in this package rather
// than being delegated further down, since this engine has no separate
// "system" library tier.
package state

import (
	"os"
	"path/filepath"
	"time"

	"hookrouter/internal/jsonx"
	"hookrouter/internal/paths"
)

const schemaVersion = 1

// GateState is one gate's durable bookkeeping (spec.md §3.2).
type GateState struct {
	Status        string         `json:"status"` // "open" | "closed"
	Blocked       bool           `json:"blocked"`
	BlockReason   string         `json:"block_reason"`
	OpsSinceOpen  int            `json:"ops_since_open"`
	OpsSinceClose int            `json:"ops_since_close"`
	LastOpenTurn  int            `json:"last_open_turn"`
	LastCloseTurn int            `json:"last_close_turn"`
	LastOpenTS    float64        `json:"last_open_ts"`
	LastCloseTS   float64        `json:"last_close_ts"`
	Metrics       map[string]any `json:"metrics"`
}

func newGateState(initialStatus string) *GateState {
	return &GateState{Status: initialStatus, Metrics: map[string]any{}}
}

// SubagentRecord tracks invocation counts per subagent_type (SPEC_FULL.md §A).
type SubagentRecord struct {
	Count      int    `json:"count"`
	LastResult string `json:"last_result"`
}

// MainAgent holds the main agent's bound task and workflow classification.
type MainAgent struct {
	CurrentTask     string `json:"current_task"`
	CurrentWorkflow string `json:"current_workflow"`
}

// HydrationState is the hydration sub-document (spec.md §3.2
// "hydration: {turns_since_hydration, critic_verdict,
// acceptance_criteria[]}"): reflection bookkeeping the qa/critic gates
// and external log grep consult alongside the hydration gate itself.
type HydrationState struct {
	TurnsSinceHydration int      `json:"turns_since_hydration"`
	CriticVerdict       string   `json:"critic_verdict"`
	AcceptanceCriteria  []string `json:"acceptance_criteria"`
}

// State is the full durable session document (spec.md §3.2).
type State struct {
	Version         int                        `json:"version"`
	SessionID       string                     `json:"session_id"`
	GlobalTurnCount int                        `json:"global_turn_count"`
	MainAgent       MainAgent                  `json:"main_agent"`
	Gates           map[string]*GateState      `json:"gates"`
	Scratch         map[string]any             `json:"state"`
	Subagents       map[string]*SubagentRecord `json:"subagents"`
	Hydration       HydrationState             `json:"hydration"`
	SessionStart    time.Time                  `json:"session_start"`

	path string
}

// New returns a freshly initialized State for a session that has no
// persisted document yet.
func New(sessionID string) *State {
	return &State{
		Version:      schemaVersion,
		SessionID:    sessionID,
		MainAgent:    MainAgent{},
		Gates:        map[string]*GateState{},
		Scratch:      map[string]any{"hydration_pending": false},
		Subagents:    map[string]*SubagentRecord{},
		Hydration:    HydrationState{AcceptanceCriteria: []string{}},
		SessionStart: time.Now(),
	}
}

// Load reads the session's state file, creating a fresh State if none
// exists yet (spec.md §4.A "load(session_id)").
func Load(layout paths.Layout, sessionID string) (*State, error) {
	p, err := layout.StateFile(sessionID, time.Now())
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			s := New(sessionID)
			s.path = p
			return s, nil
		}
		return nil, err
	}

	var s State
	if err := jsonx.Unmarshal(data, &s); err != nil {
		// Malformed state is an infrastructure failure, not a programmer
		// error: fail open with a fresh document rather than blocking
		// every future tool call in the session.
		s := New(sessionID)
		s.path = p
		return s, nil
	}
	if s.Gates == nil {
		s.Gates = map[string]*GateState{}
	}
	if s.Scratch == nil {
		s.Scratch = map[string]any{}
	}
	if s.Subagents == nil {
		s.Subagents = map[string]*SubagentRecord{}
	}
	s.path = p
	return &s, nil
}

// Save atomically persists the state document: write to a temp file in
// the same directory, fsync, then rename over the target (spec.md §5
// "writes are atomic: write-temp, fsync, rename").
func (s *State) Save() error {
	if s.path == "" {
		return os.ErrInvalid
	}
	data, err := jsonx.Marshal(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// GetGate returns the named gate's state, creating it with initialStatus
// if this is the first reference.
func (s *State) GetGate(name string, initialStatus string) *GateState {
	if g, ok := s.Gates[name]; ok {
		return g
	}
	g := newGateState(initialStatus)
	s.Gates[name] = g
	return g
}

// OpenGate transitions a gate open and resets its ops-since-open counter.
func (s *State) OpenGate(name string) {
	g := s.GetGate(name, "open")
	g.Status = "open"
	g.OpsSinceOpen = 0
	g.LastOpenTurn = s.GlobalTurnCount
	g.LastOpenTS = float64(time.Now().Unix())
}

// CloseGate transitions a gate closed and resets its ops-since-close counter.
func (s *State) CloseGate(name string) {
	g := s.GetGate(name, "open")
	g.Status = "closed"
	g.OpsSinceClose = 0
	g.LastCloseTurn = s.GlobalTurnCount
	g.LastCloseTS = float64(time.Now().Unix())
}

// RefreshTurnsSinceHydration recomputes hydration.turns_since_hydration
// from the hydration gate's last-close turn, so the persisted document
// stays current for every Stop-time reflection check.
func (s *State) RefreshTurnsSinceHydration() int {
	g := s.GetGate("hydration", "open")
	s.Hydration.TurnsSinceHydration = s.GlobalTurnCount - g.LastCloseTurn
	return s.Hydration.TurnsSinceHydration
}

// SetCriticVerdict records the critic sub-agent's most recent verdict.
func (s *State) SetCriticVerdict(verdict string) {
	s.Hydration.CriticVerdict = verdict
}

// SetAcceptanceCriteria records the acceptance criteria the hydrator (or
// task binding) reported for the currently bound task.
func (s *State) SetAcceptanceCriteria(criteria []string) {
	s.Hydration.AcceptanceCriteria = criteria
}

// RecordSubagentRun increments the invocation count for a subagent_type.
func (s *State) RecordSubagentRun(subagentType, result string) {
	rec, ok := s.Subagents[subagentType]
	if !ok {
		rec = &SubagentRecord{}
		s.Subagents[subagentType] = rec
	}
	rec.Count++
	rec.LastResult = result
}

// PushStopBlockTimestamp appends a Stop-deny timestamp and purges
// entries older than windowSeconds, for the crash-loop breaker (spec.md
// §4.C, P6).
func (s *State) PushStopBlockTimestamp(windowSeconds float64) []float64 {
	now := float64(time.Now().Unix())
	raw, _ := s.Scratch["stop_block_timestamps"].([]any)
	var kept []float64
	for _, v := range raw {
		if f, ok := v.(float64); ok && now-f < windowSeconds {
			kept = append(kept, f)
		}
	}
	kept = append(kept, now)

	out := make([]any, len(kept))
	for i, f := range kept {
		out[i] = f
	}
	s.Scratch["stop_block_timestamps"] = out
	return kept
}

// ClearStopBlockTimestamps resets the crash-loop breaker window.
func (s *State) ClearStopBlockTimestamps() {
	s.Scratch["stop_block_timestamps"] = []any{}
}
