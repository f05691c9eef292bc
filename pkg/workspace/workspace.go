// Package workspace composes the chat and library views of one session:
// conversations, the send pipeline, the names list, the document pane and
// the context panel that ties citations to their sources.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/chat"
	"pharmarag-chat/pkg/citation"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/events"
	"pharmarag-chat/pkg/library"
	"pharmarag-chat/pkg/reference"
)

const module = "workspace"

type View string

const (
	ViewChat    View = "chat"
	ViewLibrary View = "library"
)

type Tab string

const (
	TabSources Tab = "sources"
	TabHistory Tab = "history"
)

var (
	ErrInvalidView     = errors.New("unknown view")
	ErrInvalidTab      = errors.New("unknown context tab")
	ErrUnknownMessage  = errors.New("message not found in current conversation")
	ErrUnknownSource   = errors.New("source not found on message")
	ErrUnknownCitation = errors.New("citation refers to an unknown message")
)

// Observer collects workspace metrics.
type Observer interface {
	chat.Recorder
	reference.StaleObserver
	UnresolvedCitation()
}

type nopObserver struct{}

func (nopObserver) ObserveAnswer(string, time.Duration) {}
func (nopObserver) StaleDiscarded(string)               {}
func (nopObserver) UnresolvedCitation()                 {}

// Dependencies are the collaborators shared by every workspace.
type Dependencies struct {
	Answerer  chat.Answerer
	Names     reference.Source
	Documents library.Fetcher
	Publisher events.Publisher
	Logger    logger.ILogger
	Observer  Observer
}

// Settings tune a single workspace.
type Settings struct {
	PageSize        int
	SearchDebounce  time.Duration
	MinSearchLength int
	AnswerTimeout   time.Duration
	LoadTimeout     time.Duration
	Scheduler       reference.Scheduler
}

// SelectedSource is the source shown in the context panel.
type SelectedSource struct {
	MessageID string              `json:"message_id"`
	Source    conversation.Source `json:"source"`
}

type ContextPanel struct {
	ActiveTab      Tab             `json:"active_tab"`
	SelectedSource *SelectedSource `json:"selected_source,omitempty"`
	Highlight      string          `json:"highlight,omitempty"`
}

type Workspace struct {
	id        string
	store     *conversation.Store
	pipeline  *chat.Pipeline
	names     *reference.Client
	documents *library.Client
	publisher events.Publisher
	logger    logger.ILogger
	observer  Observer

	mu    sync.Mutex
	view  View
	draft string
	panel ContextPanel
}

func New(id string, deps Dependencies, settings Settings) *Workspace {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	store := conversation.NewStore()
	w := &Workspace{
		id:    id,
		store: store,
		pipeline: chat.NewPipeline(store, deps.Answerer, deps.Logger,
			chat.WithTimeout(settings.AnswerTimeout),
			chat.WithRecorder(deps.Observer),
		),
		names: reference.NewClient(deps.Names, deps.Logger,
			reference.WithPageSize(settings.PageSize),
			reference.WithMinSearchLength(settings.MinSearchLength),
			reference.WithDebounce(settings.SearchDebounce, settings.Scheduler),
			reference.WithLoadTimeout(settings.LoadTimeout),
			reference.WithStaleObserver(deps.Observer),
		),
		documents: library.NewClient(deps.Documents, deps.Logger, deps.Observer),
		publisher: deps.Publisher,
		logger:    deps.Logger,
		observer:  deps.Observer,
		view:      ViewChat,
		panel:     ContextPanel{ActiveTab: TabSources},
	}

	w.names.OnChange(func(st reference.State) {
		w.changed("library", map[string]interface{}{"loading": st.Loading, "page": st.Page})
	})
	w.documents.OnChange(func(st library.State) {
		w.changed("document", map[string]interface{}{"loading": st.Loading, "name": st.SelectedName})
	})
	return w
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) SetView(v View) error {
	if v != ViewChat && v != ViewLibrary {
		return fmt.Errorf("%q: %w", v, ErrInvalidView)
	}
	w.mu.Lock()
	w.view = v
	w.mu.Unlock()
	w.changed("view", nil)
	return nil
}

func (w *Workspace) SetDraft(text string) {
	w.mu.Lock()
	w.draft = text
	w.mu.Unlock()
	w.changed("draft", nil)
}

// NewConversation starts a fresh thread and clears the pending input.
func (w *Workspace) NewConversation() conversation.Conversation {
	c := w.store.Create()

	w.mu.Lock()
	w.draft = ""
	w.panel.SelectedSource = nil
	w.mu.Unlock()

	w.publish(events.TypeConversationCreated, map[string]interface{}{"conversation_id": c.ID})
	w.changed("conversations", nil)
	return c
}

func (w *Workspace) SelectConversation(id string) error {
	if !w.store.Select(id) {
		return conversation.ErrNotFound
	}
	w.mu.Lock()
	w.panel.SelectedSource = nil
	w.mu.Unlock()
	w.changed("conversations", nil)
	return nil
}

func (w *Workspace) DeleteConversation(id string) error {
	if err := w.store.Delete(id); err != nil {
		return err
	}
	current := w.store.Current()
	w.mu.Lock()
	if w.panel.SelectedSource != nil && !hasMessage(current, w.panel.SelectedSource.MessageID) {
		w.panel.SelectedSource = nil
	}
	w.mu.Unlock()

	w.publish(events.TypeConversationDeleted, map[string]interface{}{"conversation_id": id})
	w.changed("conversations", nil)
	return nil
}

func (w *Workspace) RenameConversation(id, title string) (conversation.Conversation, error) {
	c, err := w.store.UpdateTitle(id, title)
	if err != nil {
		return conversation.Conversation{}, err
	}
	w.changed("conversations", nil)
	return c, nil
}

func (w *Workspace) Conversations() []conversation.Conversation {
	return w.store.List()
}

func (w *Workspace) Conversation(id string) (conversation.Conversation, error) {
	return w.store.Get(id)
}

// Send asks a question in the current conversation. The draft is cleared
// once the send is accepted; a successful answer brings the sources tab
// to the front.
func (w *Workspace) Send(ctx context.Context, text string) (*chat.Result, error) {
	convID := w.store.CurrentID()
	if strings.TrimSpace(text) == "" {
		return nil, chat.ErrEmptyInput
	}
	if w.pipeline.Sending(convID) {
		return nil, chat.ErrSendInProgress
	}

	w.mu.Lock()
	w.draft = ""
	w.mu.Unlock()
	w.changed("chat", map[string]interface{}{"sending": true})

	res, err := w.pipeline.Send(ctx, convID, text)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"conversation_id": convID,
		"message_id":      res.Reply.ID,
		"sources":         len(res.Reply.Sources),
	}
	if res.Failed {
		data["timed_out"] = res.TimedOut
		w.publish(events.TypeChatFailed, data)
	} else {
		w.mu.Lock()
		w.panel.ActiveTab = TabSources
		w.mu.Unlock()
		if res.Reply.Metadata != nil {
			data["processing_ms"] = res.Reply.Metadata.ProcessingTime.Milliseconds()
		}
		w.publish(events.TypeChatAnswered, data)
	}
	w.changed("chat", map[string]interface{}{"sending": false})
	return res, nil
}

func (w *Workspace) Sending() bool {
	return w.pipeline.Sending(w.store.CurrentID())
}

func (w *Workspace) SelectTab(tab Tab) error {
	if tab != TabSources && tab != TabHistory {
		return fmt.Errorf("%q: %w", tab, ErrInvalidTab)
	}
	w.mu.Lock()
	w.panel.ActiveTab = tab
	w.mu.Unlock()
	w.changed("context", nil)
	return nil
}

// SelectSource shows one source of a message of the current conversation.
func (w *Workspace) SelectSource(messageID, sourceID string) error {
	msg, ok := w.store.Current().FindMessage(messageID)
	if !ok {
		return ErrUnknownMessage
	}
	for _, src := range msg.Sources {
		if src.ID == sourceID {
			w.selectSource(messageID, src)
			return nil
		}
	}
	return ErrUnknownSource
}

// ClickCitation follows marker n of an assistant message. In the chat view
// it selects the source in the context panel; cross-view it opens the
// cited document in the library with the cited chunk as highlight.
// Markers without a matching source change nothing.
func (w *Workspace) ClickCitation(ctx context.Context, messageID string, n int, crossView bool) error {
	msg, ok := w.store.Current().FindMessage(messageID)
	if !ok {
		return ErrUnknownCitation
	}

	src, ok := citation.Resolve(msg.Sources, n)
	if !ok {
		w.observer.UnresolvedCitation()
		w.logger.Debug(module, "Citation marker has no source", map[string]interface{}{
			"message_id": messageID,
			"marker":     n,
			"sources":    len(msg.Sources),
		})
		w.publish(events.TypeCitationUnresolved, map[string]interface{}{"message_id": messageID, "marker": n})
		return nil
	}

	name := citation.MedicineName(src)
	if crossView && name == "" {
		w.logger.Debug(module, "Citation source names no document, showing it in chat", map[string]interface{}{
			"message_id": messageID,
			"marker":     n,
		})
		crossView = false
	}

	if !crossView {
		w.selectSource(messageID, src)
		w.publish(events.TypeCitationClicked, map[string]interface{}{"marker": n, "cross_view": false})
		return nil
	}

	w.mu.Lock()
	w.panel.Highlight = src.Metadata.Chunk
	w.view = ViewLibrary
	w.mu.Unlock()
	w.changed("view", nil)
	w.publish(events.TypeCitationClicked, map[string]interface{}{"marker": n, "cross_view": true, "document": name})

	return w.fetchDocument(ctx, name)
}

// OpenDocument shows a document picked from the library listing.
func (w *Workspace) OpenDocument(ctx context.Context, name string) error {
	w.mu.Lock()
	w.view = ViewLibrary
	w.panel.Highlight = ""
	w.mu.Unlock()
	w.changed("view", nil)
	return w.fetchDocument(ctx, name)
}

// CloseDocument returns to the library listing.
func (w *Workspace) CloseDocument() {
	w.documents.Clear()
	w.mu.Lock()
	w.panel.Highlight = ""
	w.mu.Unlock()
	w.publish(events.TypeDocumentClosed, nil)
}

func (w *Workspace) LoadNames(ctx context.Context, page int, query string) error {
	if err := w.names.LoadPage(ctx, page, query); err != nil {
		return err
	}
	st := w.names.State()
	w.publish(events.TypeNamesLoaded, map[string]interface{}{"page": st.Page, "query": st.Query, "total": st.TotalCount})
	return nil
}

// SearchNames schedules a debounced search; results arrive as change events.
func (w *Workspace) SearchNames(query string) {
	w.names.Search(query)
}

func (w *Workspace) GoToPage(ctx context.Context, n int) error {
	return w.names.GoToPage(ctx, n)
}

func (w *Workspace) NextPage(ctx context.Context) error {
	return w.names.NextPage(ctx)
}

func (w *Workspace) PreviousPage(ctx context.Context) error {
	return w.names.PreviousPage(ctx)
}

func (w *Workspace) Names() reference.State { return w.names.State() }

func (w *Workspace) Document() library.State { return w.documents.State() }

// Close stops pending background work.
func (w *Workspace) Close() {
	w.names.Close()
}

func (w *Workspace) fetchDocument(ctx context.Context, name string) error {
	if err := w.documents.Select(ctx, name); err != nil {
		return err
	}
	w.publish(events.TypeDocumentOpened, map[string]interface{}{"document": name})
	return nil
}

func (w *Workspace) selectSource(messageID string, src conversation.Source) {
	w.mu.Lock()
	w.panel.SelectedSource = &SelectedSource{MessageID: messageID, Source: src}
	w.panel.ActiveTab = TabSources
	w.mu.Unlock()
	w.changed("context", nil)
}

func (w *Workspace) changed(part string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["part"] = part
	w.publish(events.TypeWorkspaceChanged, data)
}

func (w *Workspace) publish(eventType string, data map[string]interface{}) {
	if err := w.publisher.Publish(context.Background(), events.New(eventType, w.id, data)); err != nil {
		w.logger.Warn(module, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func hasMessage(c conversation.Conversation, id string) bool {
	_, ok := c.FindMessage(id)
	return ok
}
