package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spheronhq/iclgen/pkg/icl"
	"github.com/spheronhq/iclgen/pkg/llm"
	"github.com/spheronhq/iclgen/pkg/prompt"
)

const nodeAppYAML = `version: "1.0"
services:
  web:
    image: node:18
    scaling:
      min: 2
      max: 5
profiles:
  compute:
    web:
      resources:
        memory:
          size: "2Gi"`

// fakeClient replays scripted replies (or errors) in order and records every
// request it receives.
type fakeClient struct {
	replies  []any // string or error
	requests []*llm.GenerationRequest
}

func (f *fakeClient) Generate(_ context.Context, req *llm.GenerationRequest) (string, error) {
	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return "", llm.Unavailable(context.DeadlineExceeded)
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func fence(doc string) string {
	return "```yaml\n" + doc + "\n```"
}

func testAgent(client llm.Client) *Agent {
	return New(client, prompt.NewComposer(nil, 0), icl.DefaultSchema(), nil, zap.NewNop())
}

func TestHandleMessageCommitsValidDocument(t *testing.T) {
	client := &fakeClient{replies: []any{"Here you go:\n" + fence(nodeAppYAML)}}
	a := testAgent(client)
	sess := NewSession("s1")

	result := a.HandleMessage(context.Background(), sess, "Deploy a Node.js app with 2GB RAM and autoscaling 2 to 5 instances")

	assert.Empty(t, result.ErrorKind)
	assert.Equal(t, nodeAppYAML, result.DocumentYAML)
	assert.Equal(t, StateValidDocument, sess.State())
	assert.Equal(t, nodeAppYAML, sess.DocumentYAML())

	turns := sess.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
}

func TestHandleMessageBackendUnavailable(t *testing.T) {
	client := &fakeClient{replies: []any{llm.Unavailable(context.DeadlineExceeded)}}
	a := testAgent(client)
	sess := NewSession("s1")

	result := a.HandleMessage(context.Background(), sess, "deploy nginx")

	assert.Equal(t, string(llm.KindUnavailable), result.ErrorKind)
	assert.Empty(t, result.DocumentYAML)
	assert.Equal(t, StateError, sess.State())

	// The user's message stays in history so context survives the retry.
	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
}

func TestHandleMessageBackendRejected(t *testing.T) {
	client := &fakeClient{replies: []any{llm.Rejected(assert.AnError)}}
	a := testAgent(client)
	sess := NewSession("s1")

	result := a.HandleMessage(context.Background(), sess, "deploy nginx")

	assert.Equal(t, string(llm.KindRejected), result.ErrorKind)
	assert.Equal(t, StateError, sess.State())
}

func TestHandleMessageRetriesOnceOnProse(t *testing.T) {
	client := &fakeClient{replies: []any{
		"I cannot find any YAML to give you.",
		fence(nodeAppYAML),
	}}
	a := testAgent(client)
	sess := NewSession("s1")

	result := a.HandleMessage(context.Background(), sess, "deploy node")

	assert.Empty(t, result.ErrorKind)
	assert.Equal(t, nodeAppYAML, sess.DocumentYAML())

	// The retry carried the corrective follow-up instruction.
	require.Len(t, client.requests, 2)
	retryHistory := client.requests[1].History
	require.NotEmpty(t, retryHistory)
	assert.Equal(t, prompt.CorrectiveInstruction, retryHistory[len(retryHistory)-1].Content)
}

func TestHandleMessageSurfacesNoYAMLAfterFailedRetry(t *testing.T) {
	client := &fakeClient{replies: []any{
		"Here is some prose instead of a configuration.",
		"And still no configuration, sorry.",
	}}
	a := testAgent(client)
	sess := NewSession("s1")

	before := sess.DocumentYAML()
	result := a.HandleMessage(context.Background(), sess, "deploy node")

	assert.Equal(t, ErrKindNoYAMLBlock, result.ErrorKind)
	assert.Equal(t, before, sess.DocumentYAML())
	assert.Equal(t, StateError, sess.State())
	assert.Len(t, client.requests, 2)
}

func TestHandleMessageValidationFailureLeavesDocument(t *testing.T) {
	valid := fence(nodeAppYAML)
	invalid := fence("version: \"1.0\"\nservices:\n  web:\n    image: node:18\n    scaling:\n      min: 5\n      max: 2")

	client := &fakeClient{replies: []any{valid, invalid}}
	a := testAgent(client)
	sess := NewSession("s1")

	first := a.HandleMessage(context.Background(), sess, "deploy node")
	require.Empty(t, first.ErrorKind)

	second := a.HandleMessage(context.Background(), sess, "scale from 5 down to 2")

	assert.Equal(t, ErrKindValidationFailed, second.ErrorKind)
	require.Len(t, second.ValidationErrors, 1)
	assert.Equal(t, "services.web.scaling", second.ValidationErrors[0].Path)

	// The document is never replaced by a candidate that failed validation.
	assert.Equal(t, nodeAppYAML, sess.DocumentYAML())
	assert.Equal(t, StateError, sess.State())
}

func TestSessionRecoversAfterError(t *testing.T) {
	client := &fakeClient{replies: []any{
		llm.Unavailable(assert.AnError),
		fence(nodeAppYAML),
	}}
	a := testAgent(client)
	sess := NewSession("s1")

	first := a.HandleMessage(context.Background(), sess, "deploy node")
	require.Equal(t, string(llm.KindUnavailable), first.ErrorKind)

	second := a.HandleMessage(context.Background(), sess, "try again")
	assert.Empty(t, second.ErrorKind)
	assert.Equal(t, StateValidDocument, sess.State())
}

// editingClient is a deterministic refinement double: it takes the document
// being refined out of the system instruction and applies a single textual
// edit, leaving every other byte alone.
type editingClient struct {
	old, new string
}

func (e *editingClient) Generate(_ context.Context, req *llm.GenerationRequest) (string, error) {
	sys := req.SystemInstruction
	start := strings.Index(sys, "The document being refined:\n```yaml\n")
	if start < 0 {
		return fence(nodeAppYAML), nil
	}
	doc := sys[start+len("The document being refined:\n```yaml\n"):]
	doc = doc[:strings.Index(doc, "\n```")]
	return fence(strings.Replace(doc, e.old, e.new, 1)), nil
}

func TestRefinementTouchesOnlyImpliedFields(t *testing.T) {
	client := &editingClient{old: `"2Gi"`, new: `"4Gi"`}
	a := testAgent(client)
	sess := NewSession("s1")

	first := a.HandleMessage(context.Background(), sess, "deploy node with 2GB RAM")
	require.Empty(t, first.ErrorKind)

	second := a.HandleMessage(context.Background(), sess, "make it 4GB RAM instead")
	require.Empty(t, second.ErrorKind)

	beforeLines := strings.Split(first.DocumentYAML, "\n")
	afterLines := strings.Split(second.DocumentYAML, "\n")
	require.Equal(t, len(beforeLines), len(afterLines))

	var changed []string
	for i := range beforeLines {
		if beforeLines[i] != afterLines[i] {
			changed = append(changed, afterLines[i])
		}
	}
	require.Len(t, changed, 1)
	assert.Contains(t, changed[0], `"4Gi"`)
}

func TestManagerIsolatesSessions(t *testing.T) {
	m := NewManager()

	first := m.Create()
	second := m.Create()
	assert.NotEqual(t, first.ID, second.ID)

	got, ok := m.Get(first.ID)
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Len(t, m.List(), 2)

	m.Remove(first.ID)
	_, ok = m.Get(first.ID)
	assert.False(t, ok)
}
