package services

import (
	"context"

	"github.com/google/uuid"

	"autodiag-backend/internal/models"
)

// defaultChatTitle is used when a transcript has no user turn to derive a
// title from.
const defaultChatTitle = "Conversa com o mecânico"

const chatTitleMaxLen = 30

type reportStore interface {
	Save(ctx context.Context, saved *models.SavedReport) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SavedReport, error)
}

type chatStore interface {
	Save(ctx context.Context, saved *models.SavedChat) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SavedChat, error)
}

// HistoryService persists completed reports and chat transcripts and lists
// the most recent items per user. Persistence failures never touch in-memory
// state; they only surface as errors.
type HistoryService struct {
	reports reportStore
	chats   chatStore
	limit   int
}

func NewHistoryService(reports reportStore, chats chatStore, limit int) *HistoryService {
	return &HistoryService{reports: reports, chats: chats, limit: limit}
}

func (s *HistoryService) SaveReport(ctx context.Context, userID uuid.UUID, query models.VehicleQuery, report models.Report) (*models.SavedReport, error) {
	if userID == uuid.Nil {
		return nil, &AuthRequiredError{Message: "Você precisa estar logado para salvar relatórios"}
	}

	saved := &models.SavedReport{
		UserID: userID,
		Query:  query,
		Report: report,
	}
	if err := s.reports.Save(ctx, saved); err != nil {
		return nil, &PersistenceError{Message: "Não foi possível salvar o relatório", Err: err}
	}
	return saved, nil
}

func (s *HistoryService) SaveChat(ctx context.Context, userID uuid.UUID, messages []models.ChatMessage) (*models.SavedChat, error) {
	if userID == uuid.Nil {
		return nil, &AuthRequiredError{Message: "Você precisa estar logado para salvar conversas"}
	}

	saved := &models.SavedChat{
		UserID:   userID,
		Title:    deriveChatTitle(messages),
		Messages: stripTyping(messages),
	}
	if err := s.chats.Save(ctx, saved); err != nil {
		return nil, &PersistenceError{Message: "Não foi possível salvar a conversa", Err: err}
	}
	return saved, nil
}

func (s *HistoryService) ListReports(ctx context.Context, userID uuid.UUID) ([]*models.SavedReport, error) {
	if userID == uuid.Nil {
		return nil, &AuthRequiredError{Message: "Você precisa estar logado para ver o histórico"}
	}

	items, err := s.reports.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, &PersistenceError{Message: "Não foi possível carregar o histórico de relatórios", Err: err}
	}
	return items, nil
}

func (s *HistoryService) ListChats(ctx context.Context, userID uuid.UUID) ([]*models.SavedChat, error) {
	if userID == uuid.Nil {
		return nil, &AuthRequiredError{Message: "Você precisa estar logado para ver o histórico"}
	}

	items, err := s.chats.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, &PersistenceError{Message: "Não foi possível carregar o histórico de conversas", Err: err}
	}
	return items, nil
}

// deriveChatTitle takes the first user turn's opening characters as the
// transcript title.
func deriveChatTitle(messages []models.ChatMessage) string {
	for _, m := range messages {
		if m.Role != models.RoleUser || m.Text == "" {
			continue
		}
		runes := []rune(m.Text)
		if len(runes) > chatTitleMaxLen {
			runes = runes[:chatTitleMaxLen]
		}
		return string(runes) + "..."
	}
	return defaultChatTitle
}

// stripTyping drops the in-flight flag from every message. Persisted
// transcripts never encode typing state.
func stripTyping(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(messages))
	for i, m := range messages {
		m.IsTyping = false
		out[i] = m
	}
	return out
}
