package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/pkg/validation"
)

// Workspace is everything one browser session works with: its identity, the
// published paper list and the components built around them.
type Workspace struct {
	ID     string
	Papers *PaperBook
	Editor *ScheduleEditor
	Loader *PaperLoader

	mu       sync.Mutex
	session  models.Session
	lastSeen time.Time
}

// Session returns the identity currently bound to the workspace.
func (w *Workspace) Session() models.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// WorkspaceDeps are the shared collaborators injected into every workspace.
type WorkspaceDeps struct {
	Schedules     scheduleRepository
	Papers        paperRepository
	Cache         *CacheService
	PaperCacheTTL time.Duration
	Notifications *NotificationService
	Validate      *validation.Validator
	Metrics       *MetricsService
	Logger        *zap.Logger
}

// WorkspaceRegistry keeps one workspace per browser session id and evicts
// the ones left idle longer than the TTL.
type WorkspaceRegistry struct {
	mu    sync.Mutex
	items map[string]*Workspace
	deps  WorkspaceDeps
	ttl   time.Duration
	now   func() time.Time
}

// NewWorkspaceRegistry constructs a registry.
func NewWorkspaceRegistry(deps WorkspaceDeps, ttl time.Duration) *WorkspaceRegistry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validate == nil {
		deps.Validate = validation.New()
	}
	if deps.Notifications == nil {
		deps.Notifications = NewNotificationService(deps.Logger)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &WorkspaceRegistry{
		items: make(map[string]*Workspace),
		deps:  deps,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Notifications exposes the hub workspaces publish into.
func (r *WorkspaceRegistry) Notifications() *NotificationService {
	return r.deps.Notifications
}

// Attach returns the workspace of browser session id bound to sess, creating
// it on first use. Attaching another user to an existing workspace rebinds
// its components and drops pending notifications of the previous user.
func (r *WorkspaceRegistry) Attach(id string, sess models.Session) *Workspace {
	now := r.now()

	r.mu.Lock()
	ws, ok := r.items[id]
	if !ok {
		ws = r.build(id, sess)
		r.items[id] = ws
	}
	count := len(r.items)
	r.mu.Unlock()

	if !ok {
		r.deps.Metrics.SetWorkspaces(count)
		r.deps.Logger.Debug("workspace created", zap.String("workspace", id), zap.String("user_id", sess.UserID))
	} else {
		ws.mu.Lock()
		previous := ws.session
		ws.session = sess
		ws.mu.Unlock()
		if previous.UserID != sess.UserID {
			r.deps.Logger.Info("workspace identity changed",
				zap.String("workspace", id),
				zap.String("previous_user_id", previous.UserID),
				zap.String("user_id", sess.UserID))
			r.deps.Notifications.Drain(id)
		}
		ws.Loader.Bind(sess)
		ws.Editor.Bind(sess)
	}

	ws.touch(now)
	return ws
}

func (r *WorkspaceRegistry) build(id string, sess models.Session) *Workspace {
	book := NewPaperBook()
	notifier := r.deps.Notifications.Channel(id)
	return &Workspace{
		ID:      id,
		Papers:  book,
		Loader:  NewPaperLoader(sess, r.deps.Papers, book, r.deps.Cache, r.deps.PaperCacheTTL, r.deps.Logger),
		Editor:  NewScheduleEditor(sess, r.deps.Schedules, book, notifier, r.deps.Validate, r.deps.Metrics, r.deps.Logger),
		session: sess,
	}
}

// Get looks up a workspace without touching it.
func (r *WorkspaceRegistry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[id]
	return ws, ok
}

// Len returns the number of live workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep evicts workspaces idle for longer than the TTL and returns how many
// were removed.
func (r *WorkspaceRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	var evicted []string
	for id, ws := range r.items {
		if now.Sub(ws.idleSince()) > r.ttl {
			delete(r.items, id)
			evicted = append(evicted, id)
		}
	}
	count := len(r.items)
	r.mu.Unlock()

	for _, id := range evicted {
		r.deps.Notifications.Drop(id)
	}
	if len(evicted) > 0 {
		r.deps.Logger.Debug("workspaces evicted", zap.Int("count", len(evicted)))
	}
	r.deps.Metrics.SetWorkspaces(count)
	return len(evicted)
}

// Run sweeps on every interval until ctx is done.
func (r *WorkspaceRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
