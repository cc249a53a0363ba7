package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/runtime"
)

// IChatService is the surface the transport talks to. Every call is bound to
// the originating connection; sender-only replies go through the provided
// sink.
type IChatService interface {
	Authenticate(ctx context.Context, connID string, sink contract.EventSink, p event.Authenticate)
	JoinRoom(ctx context.Context, connID string, sink contract.EventSink, p event.JoinRoom)
	LeaveRoom(ctx context.Context, connID string, p event.LeaveRoom)
	SendMessage(ctx context.Context, connID string, sink contract.EventSink, p event.SendMessage)
	Typing(ctx context.Context, connID string, p event.Typing)
	Disconnect(ctx context.Context, connID string)
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(orchestrator *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: orchestrator}
}

func (s *ChatService) Authenticate(ctx context.Context, connID string, sink contract.EventSink, p event.Authenticate) {
	s.orchestrator.Authenticate(ctx, connID, sink, p)
}

func (s *ChatService) JoinRoom(ctx context.Context, connID string, sink contract.EventSink, p event.JoinRoom) {
	s.orchestrator.JoinRoom(ctx, connID, sink, p)
}

func (s *ChatService) LeaveRoom(ctx context.Context, connID string, p event.LeaveRoom) {
	s.orchestrator.LeaveRoom(ctx, connID, p)
}

func (s *ChatService) SendMessage(ctx context.Context, connID string, sink contract.EventSink, p event.SendMessage) {
	s.orchestrator.SendMessage(ctx, connID, sink, p)
}

func (s *ChatService) Typing(ctx context.Context, connID string, p event.Typing) {
	s.orchestrator.Typing(ctx, connID, p)
}

func (s *ChatService) Disconnect(ctx context.Context, connID string) {
	s.orchestrator.Disconnect(ctx, connID)
}
