// Package chat sends user questions to the RAG backend and records both
// turns in the conversation store.
package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/ragclient"
)

const (
	module = "chat"

	ApologyMessage = "Przepraszam, wystąpił błąd podczas przetwarzania pytania. Spróbuj ponownie za chwilę."

	DefaultTimeout = 60 * time.Second
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

var (
	ErrEmptyInput     = errors.New("message text cannot be empty")
	ErrSendInProgress = errors.New("a message is already being sent in this conversation")
)

// Answerer is the part of the backend client the pipeline needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (*ragclient.AnswerResponse, error)
}

// Recorder receives the outcome and latency of every answer attempt.
type Recorder interface {
	ObserveAnswer(outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnswer(string, time.Duration) {}

// Result describes one completed send. The assistant reply is always set,
// holding the apology when the backend call failed.
type Result struct {
	ConversationID string               `json:"conversation_id"`
	User           conversation.Message `json:"user"`
	Reply          conversation.Message `json:"reply"`
	Failed         bool                 `json:"failed"`
	TimedOut       bool                 `json:"timed_out"`
}

type Pipeline struct {
	store    *conversation.Store
	answerer Answerer
	logger   logger.ILogger
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	sending map[string]bool
}

type Option func(*Pipeline)

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(store *conversation.Store, answerer Answerer, log logger.ILogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		answerer: answerer,
		logger:   log,
		recorder: nopRecorder{},
		timeout:  DefaultTimeout,
		now:      time.Now,
		sending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sending reports whether a send is in flight for the conversation.
func (p *Pipeline) Sending(conversationID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sending[conversationID]
}

// Send appends the user message, asks the backend and appends the reply.
// Backend failures never surface as errors: the apology message is appended
// instead and Result.Failed is set.
func (p *Pipeline) Send(ctx context.Context, conversationID, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if _, err := p.store.Get(conversationID); err != nil {
		return nil, err
	}

	if !p.acquire(conversationID) {
		return nil, ErrSendInProgress
	}
	defer p.release(conversationID)

	userMsg := conversation.NewUserMessage(text, p.now())
	if err := p.store.Append(conversationID, userMsg); err != nil {
		return nil, err
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	resp, err := p.answerer.Answer(callCtx, text)
	cancel()
	elapsed := time.Since(start)

	result := &Result{ConversationID: conversationID, User: userMsg}

	if err != nil {
		result.Failed = true
		result.TimedOut = errors.Is(err, ragclient.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)

		outcome := OutcomeFailure
		if result.TimedOut {
			outcome = OutcomeTimeout
			p.logger.Warn(module, "Answer request timed out", map[string]interface{}{
				"conversation_id": conversationID,
				"timeout":         p.timeout.String(),
			})
		} else {
			p.logger.Error(module, "Answer request failed", map[string]interface{}{
				"conversation_id": conversationID,
				"error":           err,
			})
		}
		p.recorder.ObserveAnswer(outcome, elapsed)

		result.Reply = conversation.NewAssistantMessage(ApologyMessage, nil, nil, p.now())
	} else {
		p.recorder.ObserveAnswer(OutcomeSuccess, elapsed)
		result.Reply = conversation.NewAssistantMessage(
			resp.Response,
			BuildSources(resp.Sources, resp.Metadata),
			&conversation.MessageMetadata{
				ProcessingTime: elapsed,
				Documents:      documentMeta(resp.Metadata),
			},
			p.now(),
		)
		p.logger.Debug(module, "Answer received", map[string]interface{}{
			"conversation_id": conversationID,
			"sources":         len(resp.Sources),
			"duration_ms":     elapsed.Milliseconds(),
		})
	}

	if err := p.store.Append(conversationID, result.Reply); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) acquire(conversationID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sending[conversationID] {
		return false
	}
	p.sending[conversationID] = true
	return true
}

func (p *Pipeline) release(conversationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sending, conversationID)
}

// BuildSources pairs sources[i] with metadata[i]. Missing metadata leaves the
// source with an empty metadata block and its raw string as title.
func BuildSources(sources []string, metadata []ragclient.DocumentMetadata) []conversation.Source {
	if len(sources) == 0 {
		return nil
	}
	out := make([]conversation.Source, 0, len(sources))
	for i, raw := range sources {
		var md ragclient.DocumentMetadata
		if i < len(metadata) {
			md = metadata[i]
		}

		title := strings.TrimSpace(md.H1)
		if title == "" {
			title = raw
		}

		src := conversation.Source{
			ID:    strconv.Itoa(i + 1),
			Title: title,
			Type:  conversation.SourceType,
			Metadata: conversation.SourceMetadata{
				H1:             md.H1,
				H2:             md.H2,
				RelevanceScore: md.RelevanceScore,
				Chunk:          md.ChunkContent,
				Path:           md.Source,
			},
		}
		if isHTTPURL(raw) {
			src.URL = raw
		}
		out = append(out, src)
	}
	return out
}

func documentMeta(in []ragclient.DocumentMetadata) []conversation.DocumentMeta {
	if len(in) == 0 {
		return nil
	}
	out := make([]conversation.DocumentMeta, len(in))
	for i, m := range in {
		out[i] = conversation.DocumentMeta{
			H1:             m.H1,
			H2:             m.H2,
			Source:         m.Source,
			RelevanceScore: m.RelevanceScore,
			ChunkContent:   m.ChunkContent,
		}
	}
	return out
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
