// Package icl defines the recognized structure of Spheron ICL documents and
// validates parsed documents against it.
package icl

// Schema describes the enforced subset of the ICL dialect. It is built once at
// process start and never mutated, so it is safe to share across sessions.
type Schema struct {
	// RequiredTopLevel lists keys every document must carry.
	RequiredTopLevel []string

	// KnownTopLevel lists keys the dialect recognizes at the root. The root
	// mapping itself is open: keys outside this set are not reported.
	KnownTopLevel map[string]bool

	// ResourceKeys lists the keys allowed inside a resources mapping. The
	// resources mapping is closed: anything else is reported.
	ResourceKeys map[string]bool
}

// DefaultSchema returns the schema for the ICL dialect as currently documented.
func DefaultSchema() *Schema {
	return &Schema{
		RequiredTopLevel: []string{"version", "services"},
		KnownTopLevel: map[string]bool{
			"version":    true,
			"services":   true,
			"profiles":   true,
			"deployment": true,
		},
		ResourceKeys: map[string]bool{
			"cpu":     true,
			"memory":  true,
			"storage": true,
			"gpu":     true,
		},
	}
}

// FieldError is a single validation violation, tagged with the dotted path of
// the offending node so messages can point at the exact field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// ValidationResult collects every violation found in a single pass.
type ValidationResult struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors,omitempty"`
}
