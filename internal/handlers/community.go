package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"autodiag-backend/internal/middleware"
	"autodiag-backend/internal/models"
	"autodiag-backend/internal/repository"
)

type CommunityHandler struct {
	postRepo *repository.PostRepo
	limit    int
}

func NewCommunityHandler(postRepo *repository.PostRepo, limit int) *CommunityHandler {
	return &CommunityHandler{postRepo: postRepo, limit: limit}
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postRepo.ListRecent(r.Context(), h.limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("PERSISTENCE_ERROR", "Não foi possível carregar as publicações", r))
		return
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title and body are required", r))
		return
	}

	post := &models.Post{
		UserID: middleware.GetUserID(r.Context()),
		Title:  strings.TrimSpace(req.Title),
		Body:   strings.TrimSpace(req.Body),
	}

	if err := h.postRepo.Create(r.Context(), post); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("PERSISTENCE_ERROR", "Não foi possível criar a publicação", r))
		return
	}

	writeJSON(w, http.StatusCreated, post)
}
