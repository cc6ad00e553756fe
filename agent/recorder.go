package agent

import (
	"context"

	"github.com/spheronhq/iclgen/pkg/storage/sqlite"
)

// Recorder persists the turn log and latest document. Recording is best
// effort: a storage failure never fails the turn, it is only logged.
type Recorder interface {
	RecordTurn(ctx context.Context, turn sqlite.Turn) error
	RecordDocument(ctx context.Context, sessionID, yamlText string) error
}

// NopRecorder discards everything. Used when persistence is not configured.
type NopRecorder struct{}

func (NopRecorder) RecordTurn(context.Context, sqlite.Turn) error {
	return nil
}

func (NopRecorder) RecordDocument(context.Context, string, string) error {
	return nil
}
