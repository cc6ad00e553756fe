// Package extract isolates the YAML payload from a model's raw text reply and
// parses it into a document tree.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoYAMLBlock is returned when the reply contains no usable YAML payload.
type ErrNoYAMLBlock struct{}

func (ErrNoYAMLBlock) Error() string {
	return "no YAML block found in reply"
}

// ErrYAMLSyntax is returned when the located block is not parseable YAML.
// Line is 1-based within the block, or 0 when the parser gave no position.
type ErrYAMLSyntax struct {
	Line    int
	Message string
}

func (e ErrYAMLSyntax) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("YAML syntax error at line %d: %s", e.Line, e.Message)
	}
	return "YAML syntax error: " + e.Message
}

// fenceRe matches a fenced code block, capturing the info tag and the body.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \t]*\r?\n(.*?)```")

// yamlLineRe pulls the line number out of yaml.v3 error text ("yaml: line N: ...").
var yamlLineRe = regexp.MustCompile(`line (\d+):\s*(.*)`)

// Document extracts the YAML document from raw model output. The first block
// tagged yaml/yml wins; absent a tagged block, the first untagged block whose
// content parses as a mapping is used. Surrounding prose is ignored. Multiple
// YAML blocks are a deviation the model should not produce, but only the
// first is used rather than failing.
//
// As a last resort a reply that is nothing but bare YAML (no fence at all) is
// accepted, since models occasionally follow the "pure YAML" instruction too
// literally.
func Document(raw string) (map[string]any, string, error) {
	matches := fenceRe.FindAllStringSubmatch(raw, -1)

	// Pass 1: an explicitly tagged block is authoritative. If it does not
	// parse, that is a syntax error, not a reason to keep searching.
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if tag == "yaml" || tag == "yml" {
			return parseBlock(m[2])
		}
	}

	// Pass 2: untagged blocks, first one that parses as a mapping.
	for _, m := range matches {
		if m[1] != "" {
			continue
		}
		doc, text, err := parseBlock(m[2])
		if err == nil {
			return doc, text, nil
		}
	}

	// Pass 3: the whole reply as bare YAML.
	if len(matches) == 0 {
		if doc, text, err := parseBlock(raw); err == nil {
			return doc, text, nil
		}
	}

	return nil, "", ErrNoYAMLBlock{}
}

// parseBlock parses block content into a document tree and returns the tree
// together with the trimmed YAML text it was parsed from.
func parseBlock(content string) (map[string]any, string, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, "", ErrYAMLSyntax{Message: "block is empty"}
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, "", syntaxError(err)
	}
	if doc == nil {
		return nil, "", ErrYAMLSyntax{Message: "document is not a mapping"}
	}

	return doc, text, nil
}

func syntaxError(err error) ErrYAMLSyntax {
	msg := err.Error()
	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return ErrYAMLSyntax{Line: line, Message: m[2]}
	}
	return ErrYAMLSyntax{Message: strings.TrimPrefix(msg, "yaml: ")}
}
