// Package prompt builds the instruction payload sent to the generation
// backend: a fixed system instruction plus a bounded window of conversation
// history and the document currently being refined.
package prompt

import (
	"strings"

	"github.com/spheronhq/iclgen/pkg/knowledge"
	"github.com/spheronhq/iclgen/pkg/llm"
)

// DefaultMaxHistoryMessages bounds the history window. Old turns are dropped
// oldest-first to stay inside the backend's input limits while keeping recent
// context.
const DefaultMaxHistoryMessages = 20

// systemInstruction states the dialect grammar summary and the output-format
// contract. The single-fenced-block requirement is what the extractor and the
// corrective retry both lean on.
const systemInstruction = `You generate Spheron ICL (Infrastructure Composition Language) YAML configurations from natural-language requirements.

Dialect summary:
- Every document has a quoted "version" string and a "services" mapping with at least one service.
- Each service declares an "image" and may declare "ports", "env", "command", "args", "count", and "scaling".
- Compute resources live under profiles.compute.<name>.resources with cpu.units, memory.size, and storage.size.
- Memory and storage sizes are strings with a unit suffix ("512Mi", "2Gi") and must be quoted.
- Scaling blocks carry integer "min" and "max" with min <= max.
- Deployment placement lives under deployment.<service>.<placement> with "profile" and "count".

Output contract:
- Reply with exactly one fenced code block tagged yaml, and no other YAML-looking text outside it.
- When a current document is provided, edit that document: change only what the request implies and keep every other field exactly as it is.
- Do not include YAML comments in the document.`

// CorrectiveInstruction is sent as a follow-up when a reply carried no usable
// YAML, before the failure is surfaced to the user.
const CorrectiveInstruction = `Your previous reply did not contain a usable YAML document. Reply again with exactly one fenced code block tagged yaml containing the full configuration, and nothing else.`

// Composer builds generation requests. It is pure: identical session state
// yields an identical request, which is what makes backend retries safe.
type Composer struct {
	knowledge          *knowledge.Base
	maxHistoryMessages int
	options            *llm.Options
}

// NewComposer creates a composer around the given knowledge base. A nil base
// falls back to the built-in one.
func NewComposer(base *knowledge.Base, maxHistoryMessages int) *Composer {
	if base == nil {
		base = knowledge.Default()
	}
	if maxHistoryMessages <= 0 {
		maxHistoryMessages = DefaultMaxHistoryMessages
	}
	return &Composer{
		knowledge:          base,
		maxHistoryMessages: maxHistoryMessages,
		options:            llm.DefaultOptions(),
	}
}

// Compose builds the full generation request for a turn. history must already
// include the latest user message as its final entry; currentDocument is the
// last validated YAML text, or empty when no document exists yet.
func (c *Composer) Compose(history []llm.Message, currentDocument string) *llm.GenerationRequest {
	var sys strings.Builder
	sys.WriteString(systemInstruction)

	if rendered := c.knowledge.Render(); rendered != "" {
		sys.WriteString("\n\nKnowledge base:\n")
		sys.WriteString(rendered)
	}

	if currentDocument != "" {
		sys.WriteString("\n\nThe document being refined:\n```yaml\n")
		sys.WriteString(currentDocument)
		sys.WriteString("\n```\nApply the user's latest request as an edit to this document.")
	}

	windowed := history
	if len(windowed) > c.maxHistoryMessages {
		windowed = windowed[len(windowed)-c.maxHistoryMessages:]
	}

	// Copy so later session appends cannot alias into an in-flight request.
	msgs := make([]llm.Message, len(windowed))
	copy(msgs, windowed)

	return &llm.GenerationRequest{
		SystemInstruction: sys.String(),
		History:           msgs,
		Options:           c.options,
	}
}
