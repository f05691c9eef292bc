package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/events"
)

const (
	StreamName    = "PHARMACHAT"
	SubjectPrefix = "pharmachat"

	streamMaxAge = 7 * 24 * time.Hour
)

// Publisher sends workspace events to JetStream for analytics consumers.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger
}

// NewPublisher connects to NATS and makes sure the analytics stream exists.
func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("pharmarag-chat"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    streamMaxAge,
	})
	if err != nil {
		// the server may come up later; publishing retries per message
		log.Warn("NATS", "Failed to ensure analytics stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// Subject maps an event type to its subject, e.g. CHAT_ANSWERED becomes
// pharmachat.chat.answered.
func Subject(eventType string) string {
	return SubjectPrefix + "." + strings.ReplaceAll(strings.ToLower(eventType), "_", ".")
}

// Publish sends the event envelope. Workspace change notifications are UI
// traffic only and are not forwarded.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if event.EventType() == events.TypeWorkspaceChanged {
		return nil
	}

	data, err := json.Marshal(events.NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Session-Id", event.SessionID())

	if _, err := p.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
