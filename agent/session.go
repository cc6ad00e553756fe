package agent

import (
	"sync"
	"time"

	"github.com/spheronhq/iclgen/pkg/llm"
)

// State is the session's position in the turn state machine.
type State string

const (
	// StateEmpty is a fresh session with no turns yet.
	StateEmpty State = "empty"
	// StateAwaitingValidation means a generation is in flight for the latest
	// user message.
	StateAwaitingValidation State = "awaiting_validation"
	// StateValidDocument means the last turn produced a validated document.
	StateValidDocument State = "valid_document"
	// StateError means the last turn failed; the document is whatever it was
	// before and the next user message starts a new attempt.
	StateError State = "error"
)

// ValidationState tracks whether the current document has passed validation.
type ValidationState string

const (
	ValidationNone    ValidationState = "none"
	ValidationValid   ValidationState = "valid"
	ValidationInvalid ValidationState = "invalid"
)

// Turn is one user or assistant message. Turns are immutable once created and
// only ever appended, never reordered.
type Turn struct {
	Role      string    `json:"role"` // llm.RoleUser or llm.RoleAssistant
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session owns the ordered turn history and the current document (the last
// successfully validated YAML). A session handles one message at a time:
// turnMu serializes whole turns, while mu guards the fields so reads never
// block behind an in-flight generation.
type Session struct {
	ID string

	turnMu sync.Mutex

	mu           sync.Mutex
	state        State
	validation   ValidationState
	turns        []Turn
	documentYAML string
	documentTree map[string]any
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:         id,
		state:      StateEmpty,
		validation: ValidationNone,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DocumentYAML returns the current validated document text, or "" when no
// document has been validated yet.
func (s *Session) DocumentYAML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentYAML
}

// Turns returns a copy of the turn history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// TurnCount returns the number of recorded turns.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// appendTurn records a turn.
func (s *Session) appendTurn(role, text string) Turn {
	turn := Turn{Role: role, Text: text, Timestamp: time.Now().UTC()}
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
	return turn
}

// history renders the turn log as backend messages.
func (s *Session) history() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llm.Message, len(s.turns))
	for i, t := range s.turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Text}
	}
	return msgs
}

// setState moves the session to the given state.
func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// markInvalid resolves a turn whose document failed validation. The current
// document is left untouched.
func (s *Session) markInvalid() {
	s.mu.Lock()
	s.state = StateError
	s.validation = ValidationInvalid
	s.mu.Unlock()
}

// commitDocument installs a newly validated document. This is the only place
// the current document is ever replaced, and it only runs after validation
// has passed.
func (s *Session) commitDocument(tree map[string]any, yamlText string) {
	s.mu.Lock()
	s.documentTree = tree
	s.documentYAML = yamlText
	s.validation = ValidationValid
	s.state = StateValidDocument
	s.mu.Unlock()
}
