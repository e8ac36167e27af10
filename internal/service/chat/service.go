package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/civicdesk/tomas/internal/model/chat"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageRequired = errors.New("message is required")
)

// Option configures a Service.
type Option func(*Service)

// WithTTL expires sessions idle for longer than ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithMaxMessages keeps only the newest n messages of each transcript.
func WithMaxMessages(n int) Option {
	return func(s *Service) { s.maxMessages = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type conversation struct {
	session    chat.Session
	messages   []chat.Message
	lastActive time.Time
}

// Service keeps conversations in memory for the lifetime of the process.
type Service struct {
	ttl         time.Duration
	maxMessages int
	now         func() time.Time

	mu            sync.RWMutex
	conversations map[string]*conversation
}

// NewService returns an empty in-memory store.
func NewService(opts ...Option) *Service {
	s := &Service{
		now:           time.Now,
		conversations: make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens an anonymous conversation with a persona.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	if strings.TrimSpace(personaID) == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	now := s.now().UTC()
	session := chat.Session{ID: uuid.NewString(), PersonaID: personaID, CreatedAt: now}

	s.mu.Lock()
	s.conversations[session.ID] = &conversation{session: session, lastActive: now}
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends message to its session transcript and returns it with
// the assigned id and timestamp. Saving keeps the session alive.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if strings.TrimSpace(message.Content) == "" {
		return chat.Message{}, ErrMessageRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.liveLocked(message.SessionID)
	if err != nil {
		return chat.Message{}, err
	}

	now := s.now().UTC()
	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	conv.messages = append(conv.messages, message)
	if s.maxMessages > 0 && len(conv.messages) > s.maxMessages {
		conv.messages = append([]chat.Message(nil), conv.messages[len(conv.messages)-s.maxMessages:]...)
	}
	conv.lastActive = now
	return message, nil
}

// GetSession returns a live session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.liveLocked(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return conv.session, nil
}

// LoadTranscript returns a copy of the session messages, oldest first.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.liveLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return append([]chat.Message{}, conv.messages...), nil
}

// liveLocked finds a session that has not expired. Callers hold mu.
func (s *Service) liveLocked(sessionID string) (*conversation, error) {
	conv, ok := s.conversations[sessionID]
	if !ok || s.expired(conv, s.now()) {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q", sessionID)
	}
	return conv, nil
}

func (s *Service) expired(conv *conversation, now time.Time) bool {
	return s.ttl > 0 && now.Sub(conv.lastActive) > s.ttl
}

// Prune drops expired sessions and returns how many were removed.
func (s *Service) Prune() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, conv := range s.conversations {
		if s.expired(conv, now) {
			delete(s.conversations, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included until the
// next Prune.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// RunJanitor prunes expired sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration, onPrune func(removed int)) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 && onPrune != nil {
				onPrune(n)
			}
		}
	}
}
