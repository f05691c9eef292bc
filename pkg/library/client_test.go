package library

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/ragclient"
)

type fetchFunc func(ctx context.Context, name string) (*ragclient.Document, error)

func (f fetchFunc) Document(ctx context.Context, name string) (*ragclient.Document, error) {
	return f(ctx, name)
}

func doc(name string) *ragclient.Document {
	return &ragclient.Document{
		Name:     name,
		Filename: name + ".md",
		H1:       name,
		Content:  "# " + name + "\n\nDawkowanie: 500 mg.",
	}
}

func TestSelectReplacesDocument(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		if name == "Paracetamol" {
			close(entered)
			<-release
		}
		return doc(name), nil
	}), logger.NewNopLogger(), nil)

	require.NoError(t, c.Select(context.Background(), "Apap"))
	assert.Equal(t, "Apap", c.State().Document.Name)

	done := make(chan error, 1)
	go func() { done <- c.Select(context.Background(), "Paracetamol") }()
	<-entered

	// selection and loading flag are visible before the response arrives
	st := c.State()
	assert.Equal(t, "Paracetamol", st.SelectedName)
	assert.True(t, st.Loading)

	close(release)
	require.NoError(t, <-done)

	st = c.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.Document)
	assert.Equal(t, "Paracetamol", st.Document.Name)
	assert.Equal(t, "Paracetamol.md", st.Document.Filename)
	assert.Empty(t, st.Error)
}

func TestSelectFailureKeysErrorToName(t *testing.T) {
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		if name == "Nieznany" {
			return nil, fmt.Errorf("GET /documents/Nieznany: %w", ragclient.ErrNotFound)
		}
		return doc(name), nil
	}), logger.NewNopLogger(), nil)

	require.NoError(t, c.Select(context.Background(), "Apap"))

	err := c.Select(context.Background(), "Nieznany")
	assert.ErrorIs(t, err, ragclient.ErrNotFound)

	st := c.State()
	assert.Nil(t, st.Document)
	assert.False(t, st.Loading)
	assert.Equal(t, "Nieznany", st.ErrorName)
	assert.Equal(t, "Nieznany", st.SelectedName)
	assert.NotEmpty(t, st.Error)

	require.NoError(t, c.Select(context.Background(), "Apap"))
	assert.Empty(t, c.State().Error)
	assert.Empty(t, c.State().ErrorName)
}

type staleCounter struct {
	mu sync.Mutex
	n  int
}

func (s *staleCounter) StaleDiscarded(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
}

func TestSupersededSelectionIsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})
	stale := &staleCounter{}
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		if name == "Wolny" {
			close(slowStarted)
			<-slowRelease
		}
		return doc(name), nil
	}), logger.NewNopLogger(), stale)

	done := make(chan error, 1)
	go func() { done <- c.Select(context.Background(), "Wolny") }()
	<-slowStarted

	require.NoError(t, c.Select(context.Background(), "Szybki"))
	close(slowRelease)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, "Szybki", st.SelectedName)
	assert.Equal(t, "Szybki", st.Document.Name)
	assert.Equal(t, 1, stale.n)
}

func TestClearIsIdempotent(t *testing.T) {
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		return doc(name), nil
	}), logger.NewNopLogger(), nil)

	c.Clear()
	assert.Equal(t, State{}, c.State())

	require.NoError(t, c.Select(context.Background(), "Apap"))
	c.Clear()
	first := c.State()
	c.Clear()
	assert.Equal(t, first, c.State())
	assert.Equal(t, State{}, first)
}

func TestClearDiscardsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		close(started)
		<-release
		return doc(name), nil
	}), logger.NewNopLogger(), nil)

	done := make(chan error, 1)
	go func() { done <- c.Select(context.Background(), "Apap") }()
	<-started
	c.Clear()
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, State{}, c.State())
}

func TestStateIsACopy(t *testing.T) {
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		return doc(name), nil
	}), logger.NewNopLogger(), nil)
	require.NoError(t, c.Select(context.Background(), "Apap"))

	st := c.State()
	st.Document.Content = "zmienione"
	assert.NotEqual(t, "zmienione", c.State().Document.Content)
}

func TestOnChangeSeesLoadingThenDocument(t *testing.T) {
	c := NewClient(fetchFunc(func(_ context.Context, name string) (*ragclient.Document, error) {
		return doc(name), nil
	}), logger.NewNopLogger(), nil)

	var seen []State
	c.OnChange(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.Select(context.Background(), "Apap"))
	c.Clear()

	require.Len(t, seen, 3)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, "Apap", seen[0].SelectedName)
	require.NotNil(t, seen[1].Document)
	assert.Equal(t, "Apap", seen[1].Document.Name)
	assert.Empty(t, seen[2].SelectedName)
	assert.Nil(t, seen[2].Document)
}
