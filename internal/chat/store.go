package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type Message struct {
	Role      string    `json:"role"` // "user" / "model"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	Messages   []Message `json:"messages"`
	LastActive time.Time `json:"last_active"`
}

// Store keeps per-session conversation history in memory. Sessions live
// for the lifetime of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
}

func NewStore(maxTurns int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Create registers a new empty session and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = &Session{LastActive: time.Now()}
	return id
}

// Append records one user/assistant exchange. Unknown session IDs get a
// fresh session so a client holding a stale ID keeps working.
func (s *Store) Append(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{}
		s.sessions[id] = sess
	}
	now := time.Now()
	sess.Messages = append(sess.Messages,
		Message{Role: "user", Content: userText, Timestamp: now},
		Message{Role: "model", Content: assistantText, Timestamp: now},
	)
	sess.LastActive = now
	s.trim(sess)
}

// History returns the session's messages converted to genai.Content
// format. An unknown ID yields an empty history.
func (s *Store) History(id string) []*genai.Content {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	contents := make([]*genai.Content, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// Clear removes the session entirely.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) trim(sess *Session) {
	// Keep the most recent maxTurns exchanges (each = 1 user + 1 model).
	max := s.maxTurns * 2
	if max > 0 && len(sess.Messages) > max {
		sess.Messages = sess.Messages[len(sess.Messages)-max:]
	}
}
