// Package knowledge holds the dialect knowledge base that gets rendered into
// the system instruction: component vocabulary, validation and security rules,
// and recommended patterns distilled from the ICL documentation.
package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Base is the knowledge base structure. Loaded once at startup, read-only
// afterwards.
type Base struct {
	Schema struct {
		Components []string `yaml:"components"`
		Parameters []string `yaml:"parameters"`
	} `yaml:"schema"`
	Rules struct {
		Validation []string `yaml:"validation"`
		Security   []string `yaml:"security"`
	} `yaml:"rules"`
	Practices struct {
		Deployment    []string `yaml:"deployment"`
		Configuration []string `yaml:"configuration"`
	} `yaml:"practices"`
	Patterns struct {
		Common      []string `yaml:"common"`
		Recommended []string `yaml:"recommended"`
	} `yaml:"patterns"`
}

// Load reads a knowledge base from a YAML file.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read knowledge file: %w", err)
	}

	var base Base
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("could not parse knowledge file %s: %w", path, err)
	}

	return &base, nil
}

// Default returns a minimal built-in knowledge base used when no knowledge
// file is configured.
func Default() *Base {
	var base Base
	base.Schema.Components = []string{"services", "profiles", "deployment"}
	base.Rules.Validation = []string{
		"every document declares version and at least one service",
		"memory and storage sizes carry a unit suffix such as Mi or Gi",
		"scaling min must not exceed max",
	}
	base.Practices.Deployment = []string{
		"pin image tags instead of using latest",
		"expose only the ports a service actually serves",
	}
	return &base
}

// Render serializes the knowledge base as YAML for inclusion in the system
// instruction.
func (b *Base) Render() string {
	out, err := yaml.Marshal(b)
	if err != nil {
		// The structure is plain lists of strings; marshalling cannot fail
		// for any value Load or Default can produce.
		return ""
	}
	return string(out)
}
