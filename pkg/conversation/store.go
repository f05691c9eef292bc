package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("conversation not found")
	ErrEmptyTitle       = errors.New("conversation title cannot be empty")
	ErrDuplicateMessage = errors.New("message id already present in conversation")
)

// Store holds the conversation threads of one workspace. Exactly one
// conversation is current whenever at least one exists.
type Store struct {
	mu            sync.RWMutex
	conversations []*Conversation
	currentID     string
	now           func() time.Time
}

type StoreOption func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store already holding one seeded, current conversation.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.createLocked()
	return s
}

// Create inserts a new seeded conversation and makes it current.
func (s *Store) Create() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked().clone()
}

// Select makes id current. Unknown ids are ignored.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return false
	}
	s.currentID = id
	return true
}

// Delete removes a conversation. When the current one is removed the first
// remaining conversation becomes current, or a fresh one is created.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	if s.currentID != id {
		return nil
	}
	if len(s.conversations) > 0 {
		s.currentID = s.conversations[0].ID
		return nil
	}
	s.createLocked()
	return nil
}

// UpdateTitle replaces the title and bumps UpdatedAt.
func (s *Store) UpdateTitle(id, title string) (Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Conversation{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getLocked(id)
	if c == nil {
		return Conversation{}, ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = s.now()
	return c.clone(), nil
}

// Append adds msg at the end of the conversation. The first user message
// also names a conversation that still carries the default title.
func (s *Store) Append(conversationID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getLocked(conversationID)
	if c == nil {
		return ErrNotFound
	}
	for _, m := range c.Messages {
		if m.ID == msg.ID {
			return ErrDuplicateMessage
		}
	}

	c.Messages = append(c.Messages, msg)
	c.Summary.MessageCount = len(c.Messages)
	c.UpdatedAt = s.now()

	if msg.IsUser() {
		c.Summary.LastQuery = msg.Content
		if c.Title == DefaultTitle && !c.hasEarlierUserMessage() {
			c.Title = DeriveTitle(strings.TrimSpace(msg.Content))
		}
	}
	return nil
}

// Current returns a copy of the current conversation.
func (s *Store) Current() Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.getLocked(s.currentID); c != nil {
		return c.clone()
	}
	return Conversation{}
}

func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Get returns a copy of one conversation.
func (s *Store) Get(id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.getLocked(id)
	if c == nil {
		return Conversation{}, ErrNotFound
	}
	return c.clone(), nil
}

// List returns copies in insertion order.
func (s *Store) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func (s *Store) createLocked() *Conversation {
	now := s.now()
	welcome := NewAssistantMessage(WelcomeMessage, nil, nil, now)
	c := &Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  []Message{welcome},
		CreatedAt: now,
		UpdatedAt: now,
		Summary:   Summary{MessageCount: 1},
	}
	s.conversations = append(s.conversations, c)
	s.currentID = c.ID
	return c
}

func (s *Store) indexLocked(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) getLocked(id string) *Conversation {
	if idx := s.indexLocked(id); idx >= 0 {
		return s.conversations[idx]
	}
	return nil
}

// hasEarlierUserMessage reports whether a user message precedes the last one.
func (c *Conversation) hasEarlierUserMessage() bool {
	for _, m := range c.Messages[:len(c.Messages)-1] {
		if m.IsUser() {
			return true
		}
	}
	return false
}
