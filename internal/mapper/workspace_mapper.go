package mapper

import (
	"pharmarag-chat/internal/dto"
	"pharmarag-chat/pkg/chat"
	"pharmarag-chat/pkg/citation"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/library"
	"pharmarag-chat/pkg/reference"
	"pharmarag-chat/pkg/workspace"
)

type WorkspaceMapper struct{}

func NewWorkspaceMapper() *WorkspaceMapper {
	return &WorkspaceMapper{}
}

// Workspace Mappers

func (m *WorkspaceMapper) Workspace(snap workspace.Snapshot) *dto.WorkspaceResponse {
	res := &dto.WorkspaceResponse{
		SessionID:             snap.ID,
		View:                  string(snap.View),
		Draft:                 snap.Draft,
		Sending:               snap.Sending,
		Context:               m.ContextPanel(snap.Panel, snap.HighlightRange),
		CurrentConversationID: snap.CurrentConversationID,
		Conversations:         m.ConversationSummaries(snap.Conversations, snap.CurrentConversationID),
		Library:               m.LibraryState(snap.Library),
		Document:              m.DocumentState(snap.Document),
	}
	for _, c := range snap.Conversations {
		if c.ID == snap.CurrentConversationID {
			res.CurrentConversation = m.Conversation(c)
			break
		}
	}
	return res
}

func (m *WorkspaceMapper) ContextPanel(p workspace.ContextPanel, h *citation.Highlight) dto.ContextPanelResponse {
	res := dto.ContextPanelResponse{
		ActiveTab: string(p.ActiveTab),
		Highlight: p.Highlight,
	}
	if p.SelectedSource != nil {
		res.SelectedSource = &dto.SelectedSourceItem{
			MessageID: p.SelectedSource.MessageID,
			Source:    m.Source(p.SelectedSource.Source),
		}
	}
	if h != nil {
		res.HighlightRange = &dto.HighlightRangeItem{Start: h.Start, End: h.End}
	}
	return res
}

// Conversation Mappers

func (m *WorkspaceMapper) ConversationSummaries(convs []conversation.Conversation, currentID string) []dto.ConversationSummary {
	result := make([]dto.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		result = append(result, dto.ConversationSummary{
			Id:           c.ID,
			Title:        c.Title,
			MessageCount: c.Summary.MessageCount,
			LastQuery:    c.Summary.LastQuery,
			Current:      c.ID == currentID,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return result
}

func (m *WorkspaceMapper) Conversation(c conversation.Conversation) *dto.ShowConversationResponse {
	messages := make([]dto.MessageResponse, 0, len(c.Messages))
	for _, msg := range c.Messages {
		messages = append(messages, m.Message(msg))
	}
	return &dto.ShowConversationResponse{
		Id:        c.ID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Message renders msg. User text is never scanned for citation markers.
func (m *WorkspaceMapper) Message(msg conversation.Message) dto.MessageResponse {
	res := dto.MessageResponse{
		Id:        msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Metadata != nil {
		res.ProcessingTime = msg.Metadata.ProcessingTime.Seconds()
	}

	if msg.IsUser() {
		res.Segments = []dto.SegmentItem{{Text: msg.Content}}
		return res
	}

	segments, _ := citation.Split(msg.Content, msg.Sources)
	res.Segments = make([]dto.SegmentItem, 0, len(segments))
	for _, seg := range segments {
		item := dto.SegmentItem{Text: seg.Text, Marker: seg.Marker}
		if seg.IsCitation() {
			item.SourceId = seg.Source.ID
		}
		res.Segments = append(res.Segments, item)
	}
	for _, src := range msg.Sources {
		res.Sources = append(res.Sources, m.Source(src))
	}
	return res
}

func (m *WorkspaceMapper) Source(src conversation.Source) dto.SourceItem {
	return dto.SourceItem{
		Id:             src.ID,
		Title:          src.Title,
		MedicineName:   citation.MedicineName(src),
		Section:        src.Metadata.H2,
		Path:           src.Metadata.Path,
		Chunk:          src.Metadata.Chunk,
		RelevanceScore: src.Metadata.RelevanceScore,
	}
}

func (m *WorkspaceMapper) SendResult(r *chat.Result) *dto.SendMessageResponse {
	return &dto.SendMessageResponse{
		ConversationID: r.ConversationID,
		User:           m.Message(r.User),
		Reply:          m.Message(r.Reply),
		Failed:         r.Failed,
		TimedOut:       r.TimedOut,
	}
}

// Library Mappers

func (m *WorkspaceMapper) LibraryState(st reference.State) dto.LibraryStateResponse {
	names := st.Names
	if names == nil {
		names = []string{}
	}
	return dto.LibraryStateResponse{
		Names:       names,
		Query:       st.Query,
		Page:        st.Page,
		PageSize:    st.PageSize,
		TotalCount:  st.TotalCount,
		TotalPages:  st.TotalPages,
		HasNext:     st.HasNext,
		HasPrevious: st.HasPrevious,
		Loading:     st.Loading,
		Error:       st.Error,
	}
}

func (m *WorkspaceMapper) DocumentState(st library.State) dto.DocumentStateResponse {
	res := dto.DocumentStateResponse{
		SelectedName: st.SelectedName,
		Loading:      st.Loading,
		Error:        st.Error,
		ErrorName:    st.ErrorName,
	}
	if doc := st.Document; doc != nil {
		res.Document = &dto.DocumentItem{
			Name:     doc.Name,
			Filename: doc.Filename,
			Source:   doc.Source,
			H1:       doc.H1,
			H2:       doc.H2,
			Content:  doc.Content,
		}
	}
	return res
}
