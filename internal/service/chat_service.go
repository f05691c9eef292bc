package service

import (
	"context"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/mapper"
	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/workspace"
)

type IChatService interface {
	Send(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ClickCitation(ctx context.Context, sessionID string, req *dto.CitationClickRequest) (*dto.WorkspaceResponse, error)
	SelectTab(ctx context.Context, sessionID string, req *dto.SelectTabRequest) (*dto.ContextPanelResponse, error)
	SelectSource(ctx context.Context, sessionID string, req *dto.SelectSourceRequest) (*dto.ContextPanelResponse, error)
}

type chatService struct {
	workspaces WorkspaceResolver
	mapper     *mapper.WorkspaceMapper
	logger     logger.ILogger
}

func NewChatService(workspaces WorkspaceResolver, log logger.ILogger) IChatService {
	return &chatService{
		workspaces: workspaces,
		mapper:     mapper.NewWorkspaceMapper(),
		logger:     log,
	}
}

// Send never reports a backend failure as an error: the reply is then the
// apology message and Failed is set.
func (s *chatService) Send(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	res, err := ws.Send(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	if res.Failed {
		s.logger.Warn("CHAT", "Answer replaced by apology", map[string]interface{}{
			"session_id":      sessionID,
			"conversation_id": res.ConversationID,
			"timed_out":       res.TimedOut,
		})
	}
	return s.mapper.SendResult(res), nil
}

// ClickCitation returns the whole workspace because a cross-view click
// changes the view, the panel and the document.
func (s *chatService) ClickCitation(ctx context.Context, sessionID string, req *dto.CitationClickRequest) (*dto.WorkspaceResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.ClickCitation(ctx, req.MessageID, req.Marker, req.CrossView); err != nil {
		return nil, backendError(err)
	}
	return s.mapper.Workspace(ws.Snapshot()), nil
}

func (s *chatService) SelectTab(ctx context.Context, sessionID string, req *dto.SelectTabRequest) (*dto.ContextPanelResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.SelectTab(workspace.Tab(req.Tab)); err != nil {
		return nil, err
	}
	snap := ws.Snapshot()
	panel := s.mapper.ContextPanel(snap.Panel, snap.HighlightRange)
	return &panel, nil
}

func (s *chatService) SelectSource(ctx context.Context, sessionID string, req *dto.SelectSourceRequest) (*dto.ContextPanelResponse, error) {
	ws, err := s.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.SelectSource(req.MessageID, req.SourceID); err != nil {
		return nil, err
	}
	snap := ws.Snapshot()
	panel := s.mapper.ContextPanel(snap.Panel, snap.HighlightRange)
	return &panel, nil
}
