package reference

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/ragclient"
)

const (
	module = "reference"

	DefaultPageSize        = 20
	DefaultMinSearchLength = 3
	defaultLoadTimeout     = 30 * time.Second
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoNextPage     = errors.New("no next page")
	ErrNoPreviousPage = errors.New("no previous page")
)

// State is the pagination state of the names list. An empty Query means
// the list is unfiltered.
type State struct {
	Names       []string `json:"names"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalCount  int      `json:"total_count"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
	Query       string   `json:"query"`
	Loading     bool     `json:"loading"`
	Error       string   `json:"error,omitempty"`
}

func (s State) clone() State {
	s.Names = append([]string(nil), s.Names...)
	return s
}

// StaleObserver is told when a superseded response is dropped.
type StaleObserver interface {
	StaleDiscarded(client string)
}

type nopStaleObserver struct{}

func (nopStaleObserver) StaleDiscarded(string) {}

// Client loads pages of names from a Source. Every load takes a sequence
// number and only the latest issued load may change the state.
type Client struct {
	source      Source
	logger      logger.ILogger
	debouncer   *Debouncer
	stale       StaleObserver
	minSearch   int
	loadTimeout time.Duration

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners []func(State)
}

type Option func(*Client)

func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.state.PageSize = n
		}
	}
}

func WithMinSearchLength(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.minSearch = n
		}
	}
}

// WithDebounce sets the search delay and the scheduler used to run it.
func WithDebounce(delay time.Duration, scheduler Scheduler) Option {
	return func(c *Client) { c.debouncer = NewDebouncer(delay, scheduler) }
}

func WithStaleObserver(o StaleObserver) Option {
	return func(c *Client) {
		if o != nil {
			c.stale = o
		}
	}
}

// WithLoadTimeout bounds the loads started by debounced searches.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

func NewClient(source Source, log logger.ILogger, opts ...Option) *Client {
	c := &Client{
		source:      source,
		logger:      log,
		stale:       nopStaleObserver{},
		minSearch:   DefaultMinSearchLength,
		loadTimeout: defaultLoadTimeout,
		state:       State{Page: 1, PageSize: DefaultPageSize},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.debouncer == nil {
		c.debouncer = NewDebouncer(DefaultDebounce, nil)
	}
	return c
}

// OnChange registers fn to be called with a copy of the state after every
// applied change.
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

// LoadPage fetches one page, filtered by query when it is non-empty.
// A response superseded by a later load is dropped and nil is returned.
func (c *Client) LoadPage(ctx context.Context, page int, query string) error {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	pageSize := c.state.PageSize
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()
	c.notify()

	var (
		res *ragclient.NamesPage
		err error
	)
	if query != "" {
		res, err = c.source.SearchMedicineNames(ctx, query, page, pageSize)
	} else {
		res, err = c.source.MedicineNames(ctx, page, pageSize)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.stale.StaleDiscarded(module)
		c.logger.Debug(module, "Discarded superseded names response", map[string]interface{}{
			"page":  page,
			"query": query,
		})
		return nil
	}

	c.state.Loading = false
	if err != nil {
		c.state.Error = err.Error()
		c.mu.Unlock()
		c.notify()
		c.logger.Warn(module, "Failed to load medicine names", map[string]interface{}{
			"page":  page,
			"query": query,
			"error": err.Error(),
		})
		return fmt.Errorf("load names page %d: %w", page, err)
	}

	c.state.Names = res.Names
	if c.state.Names == nil {
		c.state.Names = []string{}
	}
	c.state.Page = res.Page
	if c.state.Page < 1 {
		c.state.Page = page
	}
	c.state.TotalCount = res.TotalCount
	c.state.TotalPages = res.TotalPages
	c.state.HasNext = res.HasNext
	c.state.HasPrevious = res.HasPrevious
	c.state.Query = query
	c.mu.Unlock()
	c.notify()
	return nil
}

// Search schedules a debounced load. Queries shorter than the minimum
// length show the unfiltered first page; longer ones search from page 1.
func (c *Client) Search(query string) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < c.minSearch {
		query = ""
	}

	c.debouncer.Schedule(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
		defer cancel()
		_ = c.LoadPage(ctx, 1, query)
	})
}

// GoToPage loads page n of the current query.
func (c *Client) GoToPage(ctx context.Context, n int) error {
	c.mu.Lock()
	total := c.state.TotalPages
	query := c.state.Query
	c.mu.Unlock()

	if n < 1 || n > total {
		return fmt.Errorf("page %d of %d: %w", n, total, ErrPageOutOfRange)
	}
	return c.LoadPage(ctx, n, query)
}

func (c *Client) NextPage(ctx context.Context) error {
	c.mu.Lock()
	ok, page, query := c.state.HasNext, c.state.Page, c.state.Query
	c.mu.Unlock()

	if !ok {
		return ErrNoNextPage
	}
	return c.LoadPage(ctx, page+1, query)
}

func (c *Client) PreviousPage(ctx context.Context) error {
	c.mu.Lock()
	ok, page, query := c.state.HasPrevious, c.state.Page, c.state.Query
	c.mu.Unlock()

	if !ok {
		return ErrNoPreviousPage
	}
	return c.LoadPage(ctx, page-1, query)
}

// Close drops any pending debounced search.
func (c *Client) Close() {
	c.debouncer.CancelPending()
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
