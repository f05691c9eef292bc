package dto

import "time"

type RenameConversationRequest struct {
	Id    string
	Title string `json:"title" validate:"required,max=200"`
}

type ConversationSummary struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	LastQuery    string    `json:"last_query,omitempty"`
	Current      bool      `json:"current"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ShowConversationResponse struct {
	Id        string            `json:"id"`
	Title     string            `json:"title"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MessageResponse carries the raw content plus its rendering split into
// text and citation segments.
type MessageResponse struct {
	Id             string        `json:"id"`
	Role           string        `json:"role"`
	Content        string        `json:"content"`
	Segments       []SegmentItem `json:"segments"`
	Sources        []SourceItem  `json:"sources,omitempty"`
	ProcessingTime float64       `json:"processing_time_seconds,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type SegmentItem struct {
	Text     string `json:"text"`
	Marker   int    `json:"marker,omitempty"`
	SourceId string `json:"source_id,omitempty"`
}

type SourceItem struct {
	Id             string  `json:"id"`
	Title          string  `json:"title"`
	MedicineName   string  `json:"medicine_name"`
	Section        string  `json:"section,omitempty"`
	Path           string  `json:"path,omitempty"`
	Chunk          string  `json:"chunk,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}
