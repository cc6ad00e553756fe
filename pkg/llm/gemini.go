package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is a flash-class model: cheap, fast, and large enough
// for configuration-sized documents.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini backend client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient implements Client against Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed generation client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Generate sends the composed request and returns the model's raw text reply.
// Failures are classified as *BackendError; no retries happen here.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerationRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History))
	for _, msg := range req.History {
		role := genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if opts := req.Options; opts != nil {
		if opts.Temperature != nil {
			config.Temperature = genai.Ptr(float32(*opts.Temperature))
		}
		if opts.TopP != nil {
			config.TopP = genai.Ptr(float32(*opts.TopP))
		}
		if opts.TopK != nil {
			config.TopK = genai.Ptr(float32(*opts.TopK))
		}
		if opts.MaxOutputTokens != nil {
			config.MaxOutputTokens = int32(*opts.MaxOutputTokens)
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		// A blocked prompt comes back as an empty response rather than an
		// API error.
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", Rejected(fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		return "", Unavailable(errors.New("backend returned an empty response"))
	}

	return text, nil
}

// classifyGeminiError maps transport and API failures onto the backend error
// taxonomy. Anything plausibly transient (network, auth, rate limit, server
// errors, cancellation) is Unavailable; an explicit refusal is Rejected.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code == http.StatusUnauthorized,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusRequestTimeout,
			apiErr.Code >= http.StatusInternalServerError:
			return Unavailable(err)
		default:
			return Rejected(err)
		}
	}

	// Timeouts, cancellation, DNS failures and the like all land here.
	return Unavailable(err)
}
