package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"pharmarag-chat/pkg/workspace"
)

const (
	DefaultWorkspaceTTL = 1 * time.Hour
	cleanupInterval     = 10 * time.Minute
)

// WorkspaceRepository keeps one workspace per session in memory. Reads
// extend the expiry, so idle sessions expire after ttl.
type WorkspaceRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewWorkspaceRepository creates the repository. onEvict, when set, runs
// after a workspace is removed or expires.
func NewWorkspaceRepository(ttl time.Duration, onEvict func(*workspace.Workspace)) *WorkspaceRepository {
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(_ string, x interface{}) {
		ws := x.(*workspace.Workspace)
		ws.Close()
		if onEvict != nil {
			onEvict(ws)
		}
	})
	return &WorkspaceRepository{cache: c, ttl: ttl}
}

func (r *WorkspaceRepository) Save(ws *workspace.Workspace) {
	r.cache.Set(ws.ID(), ws, cache.DefaultExpiration)
}

func (r *WorkspaceRepository) Get(sessionID string) (*workspace.Workspace, bool) {
	x, expiresAt, found := r.cache.GetWithExpiration(sessionID)
	if !found {
		return nil, false
	}
	ws := x.(*workspace.Workspace)
	// touch at most once a minute
	if time.Until(expiresAt) < r.ttl-time.Minute {
		r.cache.Set(sessionID, ws, cache.DefaultExpiration)
	}
	return ws, true
}

func (r *WorkspaceRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *WorkspaceRepository) Count() int {
	return r.cache.ItemCount()
}

// Range calls fn for every live workspace.
func (r *WorkspaceRepository) Range(fn func(*workspace.Workspace)) {
	for _, item := range r.cache.Items() {
		fn(item.Object.(*workspace.Workspace))
	}
}
