package service

import (
	"context"
	"net/http"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/mapper"
	"pharmarag-chat/internal/pkg/serverutils"
)

type ILibraryService interface {
	Show(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error)
	LoadNames(ctx context.Context, sessionID string, req *dto.LoadNamesRequest) (*dto.LibraryStateResponse, error)
	Search(ctx context.Context, sessionID string, req *dto.SearchNamesRequest) (*dto.LibraryStateResponse, error)
	GoToPage(ctx context.Context, sessionID string, page int) (*dto.LibraryStateResponse, error)
	NextPage(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error)
	PreviousPage(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error)
	SelectDocument(ctx context.Context, sessionID string, req *dto.SelectDocumentRequest) (*dto.DocumentStateResponse, error)
	ClearDocument(ctx context.Context, sessionID string) (*dto.DocumentStateResponse, error)
}

type libraryService struct {
	workspaces WorkspaceResolver
	mapper     *mapper.WorkspaceMapper
}

func NewLibraryService(workspaces WorkspaceResolver) ILibraryService {
	return &libraryService{
		workspaces: workspaces,
		mapper:     mapper.NewWorkspaceMapper(),
	}
}

func (s *libraryService) Show(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

func (s *libraryService) LoadNames(ctx context.Context, sessionID string, req *dto.LoadNamesRequest) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	if err := ws.LoadNames(ctx, page, req.Query); err != nil {
		return nil, backendError(err)
	}
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

// Search only schedules the debounced load; the result arrives over the
// websocket and in later reads of the state.
func (s *libraryService) Search(ctx context.Context, sessionID string, req *dto.SearchNamesRequest) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	ws.SearchNames(req.Query)
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

func (s *libraryService) GoToPage(ctx context.Context, sessionID string, page int) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.GoToPage(ctx, page); err != nil {
		return nil, backendError(err)
	}
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

func (s *libraryService) NextPage(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.NextPage(ctx); err != nil {
		return nil, backendError(err)
	}
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

func (s *libraryService) PreviousPage(ctx context.Context, sessionID string) (*dto.LibraryStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.PreviousPage(ctx); err != nil {
		return nil, backendError(err)
	}
	st := s.mapper.LibraryState(ws.Names())
	return &st, nil
}

func (s *libraryService) SelectDocument(ctx context.Context, sessionID string, req *dto.SelectDocumentRequest) (*dto.DocumentStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.OpenDocument(ctx, req.Name); err != nil {
		return nil, backendError(err)
	}
	st := s.mapper.DocumentState(ws.Document())
	return &st, nil
}

func (s *libraryService) ClearDocument(ctx context.Context, sessionID string) (*dto.DocumentStateResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	ws.CloseDocument()
	st := s.mapper.DocumentState(ws.Document())
	return &st, nil
}

// backendError keeps errors that already map to a status and reports any
// other failure as a bad gateway.
func backendError(err error) error {
	if serverutils.StatusFor(err) != http.StatusInternalServerError {
		return err
	}
	return serverutils.BadGateway(err)
}
