package llm

// Options contains model inference parameters.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Output randomness (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling mass kept
	TopK        *int     `json:"top_k,omitempty"`       // Candidate pool size

	// Length parameters
	MaxOutputTokens *int `json:"max_output_tokens,omitempty"` // Max tokens to generate
}

// DefaultOptions returns the decoding parameters used for configuration
// generation: low randomness with moderate nucleus and top-k truncation, so
// repeated requests lean toward the single most probable document.
func DefaultOptions() *Options {
	temperature := 0.1
	topP := 0.8
	topK := 40

	return &Options{
		Temperature: &temperature,
		TopP:        &topP,
		TopK:        &topK,
	}
}
