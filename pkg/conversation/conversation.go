package conversation

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultTitle   = "New Conversation"
	TitleMaxLength = 50
	SourceType     = "document"

	WelcomeMessage = "Witaj! Jestem asystentem informacji o lekach. Zapytaj mnie o dawkowanie, działania niepożądane lub interakcje, a odpowiem na podstawie ulotek z bazy dokumentów."
)

// SourceMetadata describes the chunk of a document that backed part of an answer.
type SourceMetadata struct {
	H1             string  `json:"h1,omitempty"`
	H2             string  `json:"h2,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Chunk          string  `json:"chunk,omitempty"`
	Path           string  `json:"source,omitempty"`
}

// Source is a citation target attached to an assistant message.
type Source struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	URL      string         `json:"url,omitempty"`
	Type     string         `json:"type"`
	Metadata SourceMetadata `json:"metadata"`
}

// DocumentMeta is the raw per-document metadata record returned with an answer.
type DocumentMeta struct {
	H1             string  `json:"h1"`
	H2             string  `json:"h2"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
	ChunkContent   string  `json:"chunk_content"`
}

type MessageMetadata struct {
	ProcessingTime time.Duration  `json:"processing_time"`
	Documents      []DocumentMeta `json:"documents,omitempty"`
}

// Message is one chat turn. Messages are never mutated after append.
type Message struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Role      Role             `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
	Sources   []Source         `json:"sources,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

func (m Message) IsUser() bool { return m.Role == RoleUser }

type Summary struct {
	MessageCount int    `json:"message_count"`
	LastQuery    string `json:"last_query,omitempty"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Summary   Summary   `json:"summary"`
}

// FindMessage returns the message with the given id.
func (c Conversation) FindMessage(id string) (Message, bool) {
	for _, m := range c.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// NewMessageID returns a time-ordered identifier (UUIDv7).
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewUserMessage builds a user turn stamped with now.
func NewUserMessage(text string, now time.Time) Message {
	return Message{
		ID:        NewMessageID(),
		Content:   text,
		Role:      RoleUser,
		CreatedAt: now,
	}
}

// NewAssistantMessage builds an assistant turn.
func NewAssistantMessage(text string, sources []Source, meta *MessageMetadata, now time.Time) Message {
	return Message{
		ID:        NewMessageID(),
		Content:   text,
		Role:      RoleAssistant,
		CreatedAt: now,
		Sources:   sources,
		Metadata:  meta,
	}
}

// DeriveTitle turns the first user message into a conversation title.
func DeriveTitle(text string) string {
	r := []rune(text)
	if len(r) == 0 {
		return DefaultTitle
	}
	if len(r) > TitleMaxLength {
		return string(r[:TitleMaxLength]) + "..."
	}
	return string(r)
}

func (c Conversation) clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
