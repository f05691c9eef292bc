package dto

import "time"

type StartSessionResponse struct {
	SessionID string            `json:"session_id"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Workspace WorkspaceResponse `json:"workspace"`
}

type SetViewRequest struct {
	View string `json:"view" validate:"required,oneof=chat library"`
}

// Empty text is a valid draft.
type SetDraftRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type WorkspaceResponse struct {
	SessionID             string                    `json:"session_id"`
	View                  string                    `json:"view"`
	Draft                 string                    `json:"draft"`
	Sending               bool                      `json:"sending"`
	Context               ContextPanelResponse      `json:"context"`
	CurrentConversationID string                    `json:"current_conversation_id"`
	Conversations         []ConversationSummary     `json:"conversations"`
	CurrentConversation   *ShowConversationResponse `json:"current_conversation,omitempty"`
	Library               LibraryStateResponse      `json:"library"`
	Document              DocumentStateResponse     `json:"document"`
}

type ContextPanelResponse struct {
	ActiveTab      string              `json:"active_tab"`
	SelectedSource *SelectedSourceItem `json:"selected_source,omitempty"`
	Highlight      string              `json:"highlight,omitempty"`
	HighlightRange *HighlightRangeItem `json:"highlight_range,omitempty"`
}

type SelectedSourceItem struct {
	MessageID string     `json:"message_id"`
	Source    SourceItem `json:"source"`
}

type HighlightRangeItem struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
