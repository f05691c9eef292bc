package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"pharmarag-chat/internal/pkg/logger"
)

const DefaultTopic = "workspace.events"

// Bus is the in-process event bus. Workspaces publish to it and the
// websocket relay subscribes.
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBus(topic string, log logger.ILogger) *Bus {
	if topic == "" {
		topic = DefaultTopic
	}
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		NewWatermillLogger(log),
	)
	return &Bus{pubSub: pubSub, topic: topic}
}

func (b *Bus) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())
	msg.Metadata.Set("session_id", event.SessionID())
	if err := b.pubSub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe delivers every envelope to handler until ctx is done. Malformed
// messages are acked and skipped.
func (b *Bus) Subscribe(ctx context.Context, handler func(Envelope)) error {
	messages, err := b.pubSub.Subscribe(ctx, b.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var env Envelope
			if err := json.Unmarshal(msg.Payload, &env); err == nil {
				handler(env)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; the errors are joined.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type watermillLogger struct {
	log    logger.ILogger
	fields watermill.LogFields
}

// NewWatermillLogger routes watermill's internal logging to ILogger.
func NewWatermillLogger(log logger.ILogger) watermill.LoggerAdapter {
	return &watermillLogger{log: log}
}

func (l *watermillLogger) merge(fields watermill.LogFields) map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	details := l.merge(fields)
	details["error"] = err
	l.log.Error("EVENTS", msg, details)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info("EVENTS", msg, l.merge(fields))
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug("EVENTS", msg, l.merge(fields))
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug("EVENTS", msg, l.merge(fields))
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{log: l.log, fields: l.merge(fields)}
}
