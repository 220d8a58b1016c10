package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autodiag-backend/internal/models"
)

// streamApology is the fixed message appended when a chat turn fails.
const streamApology = "Desculpe, não consegui processar sua mensagem agora. Por favor, tente novamente."

// PublishFunc fans a WebSocket event out to the user's live connections.
type PublishFunc func(ctx context.Context, userID uuid.UUID, msg models.WSMessage)

// ChatManager owns the live chat sessions. One session per chat screen
// instantiation; idle sessions are swept after the TTL.
type ChatManager struct {
	mu          sync.RWMutex
	sessions    map[string]*ChatSession
	newStreamer func(history []models.ChatMessage) ChatStreamer
	publish     PublishFunc
	ttl         time.Duration
}

func NewChatManager(newStreamer func(history []models.ChatMessage) ChatStreamer, publish PublishFunc, ttl time.Duration) *ChatManager {
	m := &ChatManager{
		sessions:    make(map[string]*ChatSession),
		newStreamer: newStreamer,
		publish:     publish,
		ttl:         ttl,
	}

	// Sweep goroutine
	go func() {
		for {
			time.Sleep(ttl)
			m.mu.Lock()
			for id, s := range m.sessions {
				s.mu.Lock()
				idle := !s.inFlight && time.Since(s.lastActive) > ttl
				s.mu.Unlock()
				if idle {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}()

	return m
}

// CreateSession opens a session, optionally restoring a saved transcript.
// Restored messages are loaded into the visible log and replayed into the
// model context so later replies keep the earlier turns.
func (m *ChatManager) CreateSession(userID uuid.UUID, restored []models.ChatMessage) *ChatSession {
	history := make([]models.ChatMessage, 0, len(restored))
	for _, msg := range restored {
		msg.IsTyping = false
		history = append(history, msg)
	}

	session := &ChatSession{
		ID:         uuid.New().String(),
		UserID:     userID,
		messages:   history,
		streamer:   m.newStreamer(history),
		publish:    m.publish,
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session
}

// GetSession returns the session if it exists and belongs to the user.
func (m *ChatManager) GetSession(sessionID string, userID uuid.UUID) (*ChatSession, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || session.UserID != userID {
		return nil, &NotFoundError{Message: "Chat session not found"}
	}
	return session, nil
}

// ChatSession holds the append-only message log for one chat screen. The log
// is only ever appended to, except for the single replace-by-id update of the
// most recent model placeholder while its reply streams in.
type ChatSession struct {
	ID     string
	UserID uuid.UUID

	mu         sync.Mutex
	messages   []models.ChatMessage
	streamer   ChatStreamer
	inFlight   bool
	seq        int
	lastActive time.Time
	publish    PublishFunc
}

// Messages returns a snapshot of the log.
func (s *ChatSession) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send appends a user turn plus a model placeholder and streams the reply in
// the background. Blank text is a silent no-op. A send while a reply is in
// flight is rejected. The returned channel closes when the reply settles;
// callers are free to ignore it.
func (s *ChatSession) Send(ctx context.Context, text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" || s.streamer == nil {
		done := make(chan struct{})
		close(done)
		return done, nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, &SessionBusyError{Message: "Aguarde a resposta anterior antes de enviar outra mensagem"}
	}

	userMsg := models.ChatMessage{ID: s.nextMessageID(), Role: models.RoleUser, Text: text}
	placeholder := models.ChatMessage{ID: s.nextMessageID(), Role: models.RoleModel, Text: "", IsTyping: true}
	s.messages = append(s.messages, userMsg, placeholder)
	s.inFlight = true
	s.lastActive = time.Now()
	s.mu.Unlock()

	done := make(chan struct{})
	// The stream is never cancelled once started; losing interest in the
	// result does not stop the request.
	go func() {
		defer close(done)
		s.runStream(context.Background(), text, placeholder.ID)
	}()

	return done, nil
}

func (s *ChatSession) runStream(ctx context.Context, text, placeholderID string) {
	var buffer strings.Builder

	err := s.streamer.Stream(ctx, text, func(chunk string) error {
		buffer.WriteString(chunk)
		accumulated := buffer.String()

		s.mu.Lock()
		s.messages = replaceMessage(s.messages, placeholderID, func(m models.ChatMessage) models.ChatMessage {
			m.Text = accumulated
			if accumulated != "" {
				m.IsTyping = false
			}
			return m
		})
		s.mu.Unlock()

		s.notify(ctx, models.WSMessage{Type: "chat_chunk", Payload: models.ChatChunkEvent{
			SessionID: s.ID, MessageID: placeholderID, Text: accumulated,
		}})
		return nil
	})

	s.mu.Lock()
	defer func() {
		s.inFlight = false
		s.lastActive = time.Now()
		s.mu.Unlock()
	}()

	if err != nil {
		log.Printf("Chat stream failed (session %s): %v", s.ID, err)
		if buffer.Len() == 0 {
			// Nothing arrived: the placeholder itself becomes the apology
			// instead of lingering in a typing state.
			s.messages = replaceMessage(s.messages, placeholderID, func(m models.ChatMessage) models.ChatMessage {
				m.Text = streamApology
				m.IsTyping = false
				return m
			})
		} else {
			// Keep the partial reply and append the apology as its own turn.
			s.messages = append(s.messages, models.ChatMessage{
				ID: s.nextMessageID(), Role: models.RoleModel, Text: streamApology,
			})
		}
		s.notify(ctx, models.WSMessage{Type: "chat_error", Payload: models.ChatErrorEvent{
			SessionID: s.ID, MessageID: placeholderID, Message: streamApology,
		}})
		return
	}

	final := buffer.String()
	s.messages = replaceMessage(s.messages, placeholderID, func(m models.ChatMessage) models.ChatMessage {
		m.Text = final
		m.IsTyping = false
		return m
	})
	s.notify(ctx, models.WSMessage{Type: "chat_done", Payload: models.ChatDoneEvent{
		SessionID: s.ID, MessageID: placeholderID, Text: final,
	}})
}

func (s *ChatSession) notify(ctx context.Context, msg models.WSMessage) {
	if s.publish != nil {
		s.publish(ctx, s.UserID, msg)
	}
}

// nextMessageID is time-derived with a per-session sequence so two messages
// created in the same millisecond stay distinct. Caller holds s.mu.
func (s *ChatSession) nextMessageID() string {
	s.seq++
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), s.seq)
}

// replaceMessage returns the log with the message of the given ID replaced by
// fn's result. Messages are value types; nothing aliases the slice element.
func replaceMessage(msgs []models.ChatMessage, id string, fn func(models.ChatMessage) models.ChatMessage) []models.ChatMessage {
	for i := range msgs {
		if msgs[i].ID == id {
			msgs[i] = fn(msgs[i])
			break
		}
	}
	return msgs
}
