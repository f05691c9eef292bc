package service

import (
	"context"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/events"
)

// EnvelopeDelivery pushes an envelope to whoever follows its session.
type EnvelopeDelivery interface {
	Deliver(env events.Envelope)
}

// EnvelopeSource is the in-process bus the workspaces publish on.
type EnvelopeSource interface {
	Subscribe(ctx context.Context, handler func(events.Envelope)) error
}

type IRelayService interface {
	Consume(ctx context.Context) error
}

type relayService struct {
	source   EnvelopeSource
	delivery EnvelopeDelivery
	logger   logger.ILogger
}

func NewRelayService(source EnvelopeSource, delivery EnvelopeDelivery, log logger.ILogger) IRelayService {
	return &relayService{source: source, delivery: delivery, logger: log}
}

// Consume forwards every bus envelope to the websocket hub until ctx ends.
func (r *relayService) Consume(ctx context.Context) error {
	return r.source.Subscribe(ctx, func(env events.Envelope) {
		if env.SessionID == "" {
			return
		}
		r.logger.Debug("RELAY", "Forwarding event", map[string]interface{}{
			"type":       env.Type,
			"session_id": env.SessionID,
		})
		r.delivery.Deliver(env)
	})
}
