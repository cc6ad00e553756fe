package llm

// Message roles. The generation backend only distinguishes the user from the
// model; the system instruction travels separately on the request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}
