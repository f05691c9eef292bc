package service

import (
	"context"

	"pharmarag-chat/internal/dto"
	"pharmarag-chat/internal/mapper"
	"pharmarag-chat/pkg/conversation"
)

type IConversationService interface {
	GetAll(ctx context.Context, sessionID string) ([]dto.ConversationSummary, error)
	Create(ctx context.Context, sessionID string) (*dto.ShowConversationResponse, error)
	Show(ctx context.Context, sessionID, id string) (*dto.ShowConversationResponse, error)
	Select(ctx context.Context, sessionID, id string) (*dto.ShowConversationResponse, error)
	Rename(ctx context.Context, sessionID string, req *dto.RenameConversationRequest) (*dto.ConversationSummary, error)
	Delete(ctx context.Context, sessionID, id string) error
}

type conversationService struct {
	workspaces WorkspaceResolver
	mapper     *mapper.WorkspaceMapper
}

func NewConversationService(workspaces WorkspaceResolver) IConversationService {
	return &conversationService{
		workspaces: workspaces,
		mapper:     mapper.NewWorkspaceMapper(),
	}
}

func (c *conversationService) GetAll(ctx context.Context, sessionID string) ([]dto.ConversationSummary, error) {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	snap := ws.Snapshot()
	return c.mapper.ConversationSummaries(snap.Conversations, snap.CurrentConversationID), nil
}

func (c *conversationService) Create(ctx context.Context, sessionID string) (*dto.ShowConversationResponse, error) {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	return c.mapper.Conversation(ws.NewConversation()), nil
}

func (c *conversationService) Show(ctx context.Context, sessionID, id string) (*dto.ShowConversationResponse, error) {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	conv, err := ws.Conversation(id)
	if err != nil {
		return nil, err
	}
	return c.mapper.Conversation(conv), nil
}

func (c *conversationService) Select(ctx context.Context, sessionID, id string) (*dto.ShowConversationResponse, error) {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ws.SelectConversation(id); err != nil {
		return nil, err
	}
	conv, err := ws.Conversation(id)
	if err != nil {
		return nil, err
	}
	return c.mapper.Conversation(conv), nil
}

func (c *conversationService) Rename(ctx context.Context, sessionID string, req *dto.RenameConversationRequest) (*dto.ConversationSummary, error) {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	conv, err := ws.RenameConversation(req.Id, req.Title)
	if err != nil {
		return nil, err
	}
	current := ws.Snapshot().CurrentConversationID
	summary := c.mapper.ConversationSummaries([]conversation.Conversation{conv}, current)[0]
	return &summary, nil
}

func (c *conversationService) Delete(ctx context.Context, sessionID, id string) error {
	ws, err := c.workspaces.Resolve(sessionID)
	if err != nil {
		return err
	}
	return ws.DeleteConversation(id)
}
