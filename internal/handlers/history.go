package handlers

import (
	"encoding/json"
	"net/http"

	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/models"
	"autodiag-backend/internal/services"
)

type HistoryHandler struct {
	historyService *services.HistoryService
	searchService  *services.SearchService
}

func NewHistoryHandler(historyService *services.HistoryService, searchService *services.SearchService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, searchService: searchService}
}

func (h *HistoryHandler) SaveReport(w http.ResponseWriter, r *http.Request) {
	var req models.SaveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	saved, err := h.historyService.SaveReport(r.Context(), userID, req.Query, req.Report)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (h *HistoryHandler) SaveChat(w http.ResponseWriter, r *http.Request) {
	var req models.SaveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	saved, err := h.historyService.SaveChat(r.Context(), userID, req.Messages)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (h *HistoryHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	items, err := h.historyService.ListReports(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if items == nil {
		items = []*models.SavedReport{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": items})
}

func (h *HistoryHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	items, err := h.historyService.ListChats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if items == nil {
		items = []*models.SavedChat{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": items})
}

func (h *HistoryHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	entries, err := h.searchService.ListSearches(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if entries == nil {
		entries = []*models.SearchEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"searches": entries})
}
