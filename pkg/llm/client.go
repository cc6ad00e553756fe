package llm

import "context"

// Client is the generation backend contract. Any backend that accepts a
// composed request and returns raw text satisfies it; failures are reported
// as *BackendError with the appropriate kind.
//
// Implementations must not retry silently - the caller owns the retry
// decision, since the composer is pure given the same session state.
type Client interface {
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}
