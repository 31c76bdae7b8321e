package models

import "time"

// Role is the author of a chat message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageStatus is the completion state of a message.
type MessageStatus string

// Message statuses.
const (
	StatusSending MessageStatus = "sending"
	StatusPending MessageStatus = "pending"
	StatusSuccess MessageStatus = "success"
	StatusError   MessageStatus = "error"
)

// ModelRef identifies the model that produced a message.
type ModelRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
}

// TokenUsage is the provider-reported token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MessageMetrics holds client-side timing measurements.
type MessageMetrics struct {
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TimeCompletionMs int `json:"time_completion_millsec,omitempty"`
	TimeFirstTokenMs int `json:"time_first_token_millsec,omitempty"`
}

// Message is a single chat message.
type Message struct {
	CreatedAt        time.Time       `json:"createdAt"`
	Model            *ModelRef       `json:"model,omitempty"`
	Usage            *TokenUsage     `json:"usage,omitempty"`
	Metrics          *MessageMetrics `json:"metrics,omitempty"`
	ID               string          `json:"id"`
	TopicID          string          `json:"topicId"`
	Role             Role            `json:"role"`
	Content          string          `json:"content"`
	Status           MessageStatus   `json:"status"`
	KnowledgeBaseIDs []string        `json:"knowledgeBaseIds,omitempty"`
}

// CompletionTokens returns the completion token count, preferring the
// provider usage report over client metrics.
func (m *Message) CompletionTokens() int {
	if m.Usage != nil && m.Usage.CompletionTokens > 0 {
		return m.Usage.CompletionTokens
	}
	if m.Metrics != nil {
		return m.Metrics.CompletionTokens
	}
	return 0
}

// Topic is a conversation with its messages.
type Topic struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Messages  []*Message `json:"messages"`
}

// SuccessfulMessages returns the messages with status success in order.
func (t *Topic) SuccessfulMessages() []*Message {
	var out []*Message
	for _, m := range t.Messages {
		if m.Status == StatusSuccess {
			out = append(out, m)
		}
	}
	return out
}
