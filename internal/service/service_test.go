package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/repository/memory"
	"pharmarag-chat/pkg/chat"
	"pharmarag-chat/pkg/events"
	"pharmarag-chat/pkg/ragclient"
	"pharmarag-chat/pkg/reference"
	"pharmarag-chat/pkg/workspace"
)

type stubBackend struct {
	answerErr error
}

func (b stubBackend) Answer(context.Context, string) (*ragclient.AnswerResponse, error) {
	if b.answerErr != nil {
		return nil, b.answerErr
	}
	return &ragclient.AnswerResponse{
		Response: "Paracetamol dawkuje się co 4-6 godzin [1].",
		Sources:  []string{"paracetamol"},
		Metadata: []ragclient.DocumentMetadata{{H1: "Paracetamol", H2: "Dawkowanie", Source: "data/paracetamol.md"}},
	}, nil
}

func (stubBackend) Document(_ context.Context, name string) (*ragclient.Document, error) {
	if name != "Paracetamol" {
		return nil, ragclient.ErrNotFound
	}
	return &ragclient.Document{Name: name, Filename: "paracetamol.md", Content: "# Paracetamol"}, nil
}

type brokenNames struct{}

func (brokenNames) MedicineNames(context.Context, int, int) (*ragclient.NamesPage, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (brokenNames) SearchMedicineNames(context.Context, string, int, int) (*ragclient.NamesPage, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type countingSessions struct{ opened int }

func (c *countingSessions) WorkspaceOpened() { c.opened++ }

type fixture struct {
	sessions      ISessionService
	conversations IConversationService
	chat          IChatService
	library       ILibraryService
	observer      *countingSessions
}

func newFixture(t *testing.T, backend stubBackend, names reference.Source) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	repo := memory.NewWorkspaceRepository(time.Hour, nil)
	factory := func(id string) *workspace.Workspace {
		return workspace.New(id, workspace.Dependencies{
			Answerer:  backend,
			Names:     names,
			Documents: backend,
		}, workspace.Settings{PageSize: 2})
	}
	obs := &countingSessions{}
	sessions := NewSessionService(repo, serverutils.NewSessionTokens("test", time.Hour), factory, events.NopPublisher{}, obs, log)
	return &fixture{
		sessions:      sessions,
		conversations: NewConversationService(sessions),
		chat:          NewChatService(sessions, log),
		library:       NewLibraryService(sessions),
		observer:      obs,
	}
}

func TestStartSessionLoadsFirstPage(t *testing.T) {
	f := newFixture(t, stubBackend{}, reference.NewSnapshot([]string{"Apap", "Ibuprom", "Paracetamol"}))

	res, err := f.sessions.Start(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []string{"Apap", "Ibuprom"}, res.Workspace.Library.Names)
	assert.Equal(t, "chat", res.Workspace.View)
	require.NotNil(t, res.Workspace.CurrentConversation)
	assert.Len(t, res.Workspace.CurrentConversation.Messages, 1)
	assert.Equal(t, 1, f.observer.opened)

	_, err = f.sessions.Resolve("unknown")
	assert.ErrorIs(t, err, serverutils.ErrUnauthorized)
}

func TestStartSessionSurvivesBackendOutage(t *testing.T) {
	f := newFixture(t, stubBackend{}, brokenNames{})

	res, err := f.sessions.Start(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Workspace.Library.Error, "connection refused")

	_, err = f.library.LoadNames(context.Background(), res.SessionID, &dto.LoadNamesRequest{Page: 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, serverutils.StatusFor(err))
}

func TestSendAndRename(t *testing.T) {
	f := newFixture(t, stubBackend{}, reference.NewSnapshot([]string{"Paracetamol"}))
	ctx := context.Background()
	s, err := f.sessions.Start(ctx)
	require.NoError(t, err)

	res, err := f.chat.Send(ctx, s.SessionID, &dto.SendMessageRequest{Text: "Jak dawkować paracetamol?"})
	require.NoError(t, err)
	assert.False(t, res.Failed)
	require.Len(t, res.Reply.Sources, 1)
	assert.Equal(t, "Paracetamol", res.Reply.Sources[0].MedicineName)

	list, err := f.conversations.GetAll(ctx, s.SessionID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jak dawkować paracetamol?", list[0].Title)

	renamed, err := f.conversations.Rename(ctx, s.SessionID, &dto.RenameConversationRequest{Id: list[0].Id, Title: "Paracetamol"})
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", renamed.Title)
	assert.True(t, renamed.Current)
}

func TestSendFailureIsNotAnError(t *testing.T) {
	f := newFixture(t, stubBackend{answerErr: &ragclient.HTTPError{StatusCode: 500}}, reference.NewSnapshot(nil))
	ctx := context.Background()
	s, err := f.sessions.Start(ctx)
	require.NoError(t, err)

	res, err := f.chat.Send(ctx, s.SessionID, &dto.SendMessageRequest{Text: "Ibuprofen?"})
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Equal(t, chat.ApologyMessage, res.Reply.Content)
}

func TestCrossViewCitationOpensDocument(t *testing.T) {
	f := newFixture(t, stubBackend{}, reference.NewSnapshot([]string{"Paracetamol"}))
	ctx := context.Background()
	s, err := f.sessions.Start(ctx)
	require.NoError(t, err)
	sent, err := f.chat.Send(ctx, s.SessionID, &dto.SendMessageRequest{Text: "paracetamol"})
	require.NoError(t, err)

	ws, err := f.chat.ClickCitation(ctx, s.SessionID, &dto.CitationClickRequest{MessageID: sent.Reply.Id, Marker: 1, CrossView: true})
	require.NoError(t, err)
	assert.Equal(t, "library", ws.View)
	assert.Equal(t, "Paracetamol", ws.Document.SelectedName)

	doc, err := f.library.ClearDocument(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Empty(t, doc.SelectedName)

	_, err = f.library.SelectDocument(ctx, s.SessionID, &dto.SelectDocumentRequest{Name: "Nieznany"})
	assert.ErrorIs(t, err, ragclient.ErrNotFound)
}
