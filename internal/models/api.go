package models

// API error response envelope.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types. Chat stream events are fanned out to the owning
// user's connections as they happen.
type WSMessage struct {
	Type    string      `json:"type"` // "chat_chunk" | "chat_done" | "chat_error"
	Payload interface{} `json:"payload"`
}

type ChatChunkEvent struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"` // accumulated text so far
}

type ChatDoneEvent struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

type ChatErrorEvent struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}
