// Package llm provides internal representations of generation requests sent to
// a language-model backend, plus the backend client contract and its error
// taxonomy.
package llm

// GenerationRequest represents a single generation call. Requests are built
// fresh per turn and never persisted; re-issuing an identical request is
// always safe.
type GenerationRequest struct {
	SystemInstruction string    `json:"system_instruction"` // Dialect rules and output-format contract
	History           []Message `json:"history"`            // Bounded conversation history, oldest first
	Options           *Options  `json:"options,omitempty"`  // Decoding parameters
}
