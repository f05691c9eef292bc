// Package library fetches the full document behind a selected medicine name.
package library

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/ragclient"
)

const module = "library"

// Fetcher is the part of the backend client needed to load documents.
type Fetcher interface {
	Document(ctx context.Context, name string) (*ragclient.Document, error)
}

// StaleObserver is told when a superseded response is dropped.
type StaleObserver interface {
	StaleDiscarded(client string)
}

type nopStaleObserver struct{}

func (nopStaleObserver) StaleDiscarded(string) {}

// State is the document pane. ErrorName names the document whose fetch
// produced Error.
type State struct {
	SelectedName string              `json:"selected_name,omitempty"`
	Document     *ragclient.Document `json:"document,omitempty"`
	Loading      bool                `json:"loading"`
	Error        string              `json:"error,omitempty"`
	ErrorName    string              `json:"error_name,omitempty"`
}

type Client struct {
	fetcher Fetcher
	logger  logger.ILogger
	stale   StaleObserver

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners []func(State)
}

func NewClient(fetcher Fetcher, log logger.ILogger, stale StaleObserver) *Client {
	if stale == nil {
		stale = nopStaleObserver{}
	}
	return &Client{fetcher: fetcher, logger: log, stale: stale}
}

func (c *Client) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Select marks name as selected right away and then fetches its document.
// Only the latest selection may apply its response.
func (c *Client) Select(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.SelectedName = name
	c.state.Loading = true
	c.state.Error = ""
	c.state.ErrorName = ""
	c.mu.Unlock()
	c.notify()

	doc, err := c.fetcher.Document(ctx, name)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.stale.StaleDiscarded(module)
		c.logger.Debug(module, "Discarded superseded document response", map[string]interface{}{
			"name": name,
		})
		return nil
	}

	c.state.Loading = false
	if err != nil {
		c.state.Document = nil
		c.state.Error = err.Error()
		c.state.ErrorName = name
		c.mu.Unlock()
		c.notify()
		c.logger.Warn(module, "Failed to fetch document", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return fmt.Errorf("fetch document %q: %w", name, err)
	}

	c.state.Document = doc
	c.mu.Unlock()
	c.notify()
	return nil
}

// Clear resets the pane. Any fetch still in flight is discarded on arrival.
func (c *Client) Clear() {
	c.mu.Lock()
	c.seq++
	c.state = State{}
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	c.mu.Lock()
	snapshot := c.state.clone()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s State) clone() State {
	if s.Document != nil {
		d := *s.Document
		s.Document = &d
	}
	return s
}
