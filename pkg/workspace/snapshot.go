package workspace

import (
	"pharmarag-chat/pkg/citation"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/library"
	"pharmarag-chat/pkg/reference"
)

// Snapshot is an immutable copy of everything a UI needs to render the
// workspace.
type Snapshot struct {
	ID                    string                      `json:"id"`
	View                  View                        `json:"view"`
	Draft                 string                      `json:"draft"`
	Sending               bool                        `json:"sending"`
	Panel                 ContextPanel                `json:"context"`
	CurrentConversationID string                      `json:"current_conversation_id"`
	Conversations         []conversation.Conversation `json:"conversations"`
	Library               reference.State             `json:"library"`
	Document              library.State               `json:"document"`
	HighlightRange        *citation.Highlight         `json:"highlight_range,omitempty"`
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	view, draft, panel := w.view, w.draft, w.panel
	if panel.SelectedSource != nil {
		sel := *panel.SelectedSource
		panel.SelectedSource = &sel
	}
	w.mu.Unlock()

	snap := Snapshot{
		ID:                    w.id,
		View:                  view,
		Draft:                 draft,
		Sending:               w.Sending(),
		Panel:                 panel,
		CurrentConversationID: w.store.CurrentID(),
		Conversations:         w.store.List(),
		Library:               w.names.State(),
		Document:              w.documents.State(),
	}

	if doc := snap.Document.Document; doc != nil && panel.Highlight != "" {
		if h, ok := citation.Locate(doc.Content, panel.Highlight); ok {
			snap.HighlightRange = &h
		}
	}
	return snap
}
