package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/mapper"
	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/repository/memory"
	"pharmarag-chat/pkg/events"
	"pharmarag-chat/pkg/workspace"
)

var ErrSessionExpired = fmt.Errorf("workspace expired: %w", serverutils.ErrUnauthorized)

// WorkspaceFactory builds a fresh workspace for a new session.
type WorkspaceFactory func(sessionID string) *workspace.Workspace

// WorkspaceResolver finds the workspace behind an authenticated session.
type WorkspaceResolver interface {
	Resolve(sessionID string) (*workspace.Workspace, error)
}

type SessionObserver interface {
	WorkspaceOpened()
}

type ISessionService interface {
	WorkspaceResolver
	Start(ctx context.Context) (*dto.StartSessionResponse, error)
	Show(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error)
	SetView(ctx context.Context, sessionID string, req *dto.SetViewRequest) (*dto.WorkspaceResponse, error)
	SetDraft(ctx context.Context, sessionID string, req *dto.SetDraftRequest) error
}

type sessionService struct {
	repo      *memory.WorkspaceRepository
	tokens    *serverutils.SessionTokens
	factory   WorkspaceFactory
	publisher events.Publisher
	observer  SessionObserver
	mapper    *mapper.WorkspaceMapper
	logger    logger.ILogger
}

func NewSessionService(
	repo *memory.WorkspaceRepository,
	tokens *serverutils.SessionTokens,
	factory WorkspaceFactory,
	publisher events.Publisher,
	observer SessionObserver,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		repo:      repo,
		tokens:    tokens,
		factory:   factory,
		publisher: publisher,
		observer:  observer,
		mapper:    mapper.NewWorkspaceMapper(),
		logger:    log,
	}
}

func (s *sessionService) Start(ctx context.Context) (*dto.StartSessionResponse, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.Issue(sessionID)
	if err != nil {
		return nil, err
	}

	ws := s.factory(sessionID)
	s.repo.Save(ws)
	s.observer.WorkspaceOpened()

	// The first page is best effort; its error stays in the library state.
	if err := ws.LoadNames(ctx, 1, ""); err != nil {
		s.logger.Warn("SESSION", "Initial names load failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	if err := s.publisher.Publish(ctx, events.New(events.TypeSessionStarted, sessionID, nil)); err != nil {
		s.logger.Warn("SESSION", "Failed to publish session start", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info("SESSION", "Session started", map[string]interface{}{"session_id": sessionID})

	return &dto.StartSessionResponse{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expiresAt,
		Workspace: *s.mapper.Workspace(ws.Snapshot()),
	}, nil
}

func (s *sessionService) Resolve(sessionID string) (*workspace.Workspace, error) {
	ws, ok := s.repo.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}
	return ws, nil
}

func (s *sessionService) Show(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error) {
	ws, err := s.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	return s.mapper.Workspace(ws.Snapshot()), nil
}

func (s *sessionService) SetView(ctx context.Context, sessionID string, req *dto.SetViewRequest) (*dto.WorkspaceResponse, error) {
	ws, err := s.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.SetView(workspace.View(req.View)); err != nil {
		return nil, err
	}
	return s.mapper.Workspace(ws.Snapshot()), nil
}

func (s *sessionService) SetDraft(ctx context.Context, sessionID string, req *dto.SetDraftRequest) error {
	ws, err := s.Resolve(sessionID)
	if err != nil {
		return err
	}
	ws.SetDraft(req.Text)
	return nil
}
