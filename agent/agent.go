// Package agent implements the conversation-to-configuration loop: it owns
// conversation sessions, drives each turn through composition, generation,
// extraction, and validation, and commits the resulting document only when
// validation passes.
package agent

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spheronhq/iclgen/pkg/extract"
	"github.com/spheronhq/iclgen/pkg/icl"
	"github.com/spheronhq/iclgen/pkg/llm"
	"github.com/spheronhq/iclgen/pkg/prompt"
	"github.com/spheronhq/iclgen/pkg/storage/sqlite"
)

// Failure classifications surfaced to the caller alongside the backend kinds
// in pkg/llm.
const (
	ErrKindNoYAMLBlock      = "no_yaml_block_found"
	ErrKindYAMLSyntax       = "yaml_syntax_error"
	ErrKindValidationFailed = "schema_validation_failed"
)

// DefaultGenerateTimeout bounds the backend round trip. On timeout the turn
// resolves to the error state as backend-unavailable instead of hanging.
const DefaultGenerateTimeout = 2 * time.Minute

// Result is the outcome of one handled message.
type Result struct {
	// Reply is the user-facing reply text: the model's raw reply on success,
	// or an explanation of the failure.
	Reply string `json:"reply"`

	// DocumentYAML is the session's current document after the turn. It only
	// changes when the turn validated successfully.
	DocumentYAML string `json:"document_yaml,omitempty"`

	// ValidationErrors carries per-field errors when validation failed.
	ValidationErrors []icl.FieldError `json:"validation_errors,omitempty"`

	// ErrorKind classifies a failed turn; empty on success.
	ErrorKind string `json:"error_kind,omitempty"`
}

// Agent drives conversation turns against a generation backend. Safe for use
// from concurrent sessions: the agent itself is stateless between calls, and
// each session serializes its own messages.
type Agent struct {
	client   llm.Client
	composer *prompt.Composer
	schema   *icl.Schema
	recorder Recorder
	logger   *zap.Logger
	timeout  time.Duration
}

// New creates an agent. recorder may be nil to disable persistence.
func New(client llm.Client, composer *prompt.Composer, schema *icl.Schema, recorder Recorder, logger *zap.Logger) *Agent {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Agent{
		client:   client,
		composer: composer,
		schema:   schema,
		recorder: recorder,
		logger:   logger,
		timeout:  DefaultGenerateTimeout,
	}
}

// WithTimeout overrides the per-generation timeout.
func (a *Agent) WithTimeout(d time.Duration) *Agent {
	a.timeout = d
	return a
}

// HandleMessage processes one user message through the full turn loop. Turns
// on a session are serialized: one message is fully handled before the next
// is accepted, since each turn depends on the previous document.
func (a *Agent) HandleMessage(ctx context.Context, sess *Session, text string) *Result {
	sess.turnMu.Lock()
	defer sess.turnMu.Unlock()

	userTurn := sess.appendTurn(llm.RoleUser, text)
	a.record(ctx, sess.ID, userTurn)
	sess.setState(StateAwaitingValidation)

	history := sess.history()
	currentDoc := sess.DocumentYAML()

	raw, err := a.generate(ctx, history, currentDoc)
	if err != nil {
		kind := backendKind(err)
		return a.fail(sess, kind, backendReply(kind))
	}

	doc, yamlText, err := extract.Document(raw)
	if err != nil {
		a.logger.Warn("reply carried no usable YAML, retrying once",
			zap.String("session", sess.ID),
			zap.Error(err),
		)

		// One corrective retry with a follow-up instruction before the
		// failure is surfaced.
		corrective := append(history, llm.Message{Role: llm.RoleUser, Content: prompt.CorrectiveInstruction})
		var genErr error
		raw, genErr = a.generate(ctx, corrective, currentDoc)
		if genErr != nil {
			kind := backendKind(genErr)
			return a.fail(sess, kind, backendReply(kind))
		}

		doc, yamlText, err = extract.Document(raw)
		if err != nil {
			kind := ErrKindNoYAMLBlock
			var syntaxErr extract.ErrYAMLSyntax
			if errors.As(err, &syntaxErr) {
				kind = ErrKindYAMLSyntax
			}
			return a.fail(sess, kind, "The model did not produce a usable YAML document: "+err.Error()+" Try rephrasing your request.")
		}
	}

	if result := a.schema.Validate(doc); !result.OK {
		sess.markInvalid()
		a.logger.Info("generated document failed validation",
			zap.String("session", sess.ID),
			zap.Int("violations", len(result.Errors)),
		)
		return &Result{
			Reply:            "The generated configuration is not valid ICL. Try rephrasing your request.",
			DocumentYAML:     currentDoc,
			ValidationErrors: result.Errors,
			ErrorKind:        ErrKindValidationFailed,
		}
	}

	sess.commitDocument(doc, yamlText)
	assistantTurn := sess.appendTurn(llm.RoleAssistant, raw)
	a.record(ctx, sess.ID, assistantTurn)
	if err := a.recorder.RecordDocument(ctx, sess.ID, yamlText); err != nil {
		a.logger.Warn("failed to record document", zap.String("session", sess.ID), zap.Error(err))
	}

	a.logger.Info("document updated",
		zap.String("session", sess.ID),
		zap.Int("turns", sess.TurnCount()),
	)

	return &Result{
		Reply:        raw,
		DocumentYAML: yamlText,
	}
}

// generate composes and issues one backend call under the agent's timeout.
func (a *Agent) generate(ctx context.Context, history []llm.Message, currentDocument string) (string, error) {
	req := a.composer.Compose(history, currentDocument)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.client.Generate(ctx, req)
}

// fail resolves the turn to the error state. The current document is left
// untouched and the user's message stays in history so context is not lost on
// the next attempt.
func (a *Agent) fail(sess *Session, kind, reply string) *Result {
	sess.setState(StateError)
	a.logger.Warn("turn failed",
		zap.String("session", sess.ID),
		zap.String("kind", kind),
	)
	return &Result{
		Reply:        reply,
		DocumentYAML: sess.DocumentYAML(),
		ErrorKind:    kind,
	}
}

func (a *Agent) record(ctx context.Context, sessionID string, turn Turn) {
	err := a.recorder.RecordTurn(ctx, sqlite.Turn{
		SessionID: sessionID,
		Role:      turn.Role,
		Text:      turn.Text,
		CreatedAt: turn.Timestamp,
	})
	if err != nil {
		a.logger.Warn("failed to record turn", zap.String("session", sessionID), zap.Error(err))
	}
}

// backendReply is the generic user-facing message for a backend failure;
// transport details never leak into it.
func backendReply(kind string) string {
	if kind == string(llm.KindRejected) {
		return "The configuration service refused this request. Rephrase it and try again."
	}
	return "The configuration service is currently unreachable. Please try again."
}

// backendKind extracts the error kind from a backend failure, defaulting to
// unavailable for anything unclassified (timeouts, cancellation).
func backendKind(err error) string {
	var backendErr *llm.BackendError
	if errors.As(err, &backendErr) {
		return string(backendErr.Kind)
	}
	return string(llm.KindUnavailable)
}
