package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("ragclient: not found")
	// ErrTimeout is returned when the request deadline expires before a response.
	ErrTimeout = errors.New("ragclient: request timed out")
)

// HTTPError carries a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ragclient: backend status %d: %s", e.StatusCode, e.Body)
}

// Observer receives one call per backend request. Status is the HTTP status
// code, or "error" / "timeout" when no response arrived.
type Observer interface {
	ObserveRequest(endpoint, status string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, time.Duration) {}

// Client talks to the PharmaRAG backend.
type Client struct {
	BaseURL  string
	Client   *http.Client
	observer Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.Client = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a client. Timeouts are driven by the caller's context; the
// http.Client timeout is only a last-resort bound.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: timeout},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Answer asks the RAG pipeline a question.
func (c *Client) Answer(ctx context.Context, question string) (*AnswerResponse, error) {
	body, err := json.Marshal(AnswerRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out AnswerResponse
	if err := c.do(ctx, "answer", http.MethodPost, "/rag/answer", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MedicineNames returns one page of the unfiltered names list.
func (c *Client) MedicineNames(ctx context.Context, page, pageSize int) (*NamesPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out NamesPage
	if err := c.do(ctx, "names_paginated", http.MethodGet, "/medicine-names/paginated?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchMedicineNames returns one page of names matching query.
func (c *Client) SearchMedicineNames(ctx context.Context, query string, page, pageSize int) (*NamesPage, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out NamesPage
	if err := c.do(ctx, "names_search", http.MethodGet, "/medicine-names/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document fetches the full document for a medicine name.
func (c *Client) Document(ctx context.Context, name string) (*Document, error) {
	var out Document
	if err := c.do(ctx, "document", http.MethodGet, "/documents/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, out interface{}) (err error) {
	ctx, span := otel.Tracer("pharmachat/ragclient").Start(ctx, "ragclient."+endpoint)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("rag.endpoint", endpoint))

	start := time.Now()
	status := "error"
	defer func() {
		c.observer.ObserveRequest(endpoint, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			status = "timeout"
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			status = "timeout"
			return fmt.Errorf("read response: %w", ErrTimeout)
		}
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
