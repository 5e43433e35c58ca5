package openai

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message as sent to and received from the API.
// Values are immutable once created; session code always copies slices
// of Message rather than sharing them.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
