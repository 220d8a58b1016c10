package models

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessage is one turn in a mechanic chat session. Model turns start as a
// placeholder (IsTyping=true, empty text) and are filled in by message ID as
// stream chunks arrive. IsTyping is never persisted.
type ChatMessage struct {
	ID       string `json:"id"`
	Role     string `json:"role"` // "user" or "model"
	Text     string `json:"text"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

// CreateChatSessionRequest opens a new chat session, optionally restoring a
// previously saved transcript.
type CreateChatSessionRequest struct {
	Messages []ChatMessage `json:"messages,omitempty"`
}

type CreateChatSessionResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

type SendChatMessageRequest struct {
	Text string `json:"text"`
}

type ChatMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}
