package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/models"
	"autodiag-backend/internal/services"
)

type ChatHandler struct {
	chatManager *services.ChatManager
}

func NewChatHandler(chatManager *services.ChatManager) *ChatHandler {
	return &ChatHandler{chatManager: chatManager}
}

// CreateSession opens a chat session, optionally restoring a previously
// saved transcript into it.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	session := h.chatManager.CreateSession(userID, req.Messages)

	writeJSON(w, http.StatusCreated, models.CreateChatSessionResponse{
		SessionID: session.ID,
		Messages:  session.Messages(),
	})
}

// GetMessages returns the session's current message log.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatManager.GetSession(chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatMessagesResponse{Messages: session.Messages()})
}

// SendMessage appends a user turn and starts streaming the mechanic's reply.
// Chunks reach the client over the WebSocket; the response carries the log
// snapshot with the user turn and the typing placeholder already appended.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatManager.GetSession(chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req models.SendChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if _, err := session.Send(r.Context(), req.Text); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, models.ChatMessagesResponse{Messages: session.Messages()})
}
