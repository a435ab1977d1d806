package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

type paperRepository interface {
	ListByTeacher(ctx context.Context, sess models.Session) ([]models.Paper, error)
}

// PaperSource exposes the published paper list to consumers such as the
// schedule editor.
type PaperSource interface {
	Papers() []models.Paper
}

// PaperBook holds the paper list published for a workspace. Readers always
// receive a copy.
type PaperBook struct {
	mu     sync.RWMutex
	owner  string
	papers []models.Paper
	loaded bool
}

// NewPaperBook returns an empty book.
func NewPaperBook() *PaperBook {
	return &PaperBook{}
}

// Papers returns the published list, or an empty list before any load.
func (b *PaperBook) Papers() []models.Paper {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Paper, len(b.papers))
	copy(out, b.papers)
	return out
}

// Publish replaces the list and records which user it belongs to.
func (b *PaperBook) Publish(owner string, papers []models.Paper) {
	cp := make([]models.Paper, len(papers))
	copy(cp, papers)
	b.mu.Lock()
	b.owner = owner
	b.papers = cp
	b.loaded = true
	b.mu.Unlock()
}

// Reset forgets the published list.
func (b *PaperBook) Reset() {
	b.mu.Lock()
	b.owner = ""
	b.papers = nil
	b.loaded = false
	b.mu.Unlock()
}

// LoadedFor reports whether the book holds the list of owner.
func (b *PaperBook) LoadedFor(owner string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded && b.owner == owner
}

// PaperLoader fetches the session user's papers once per identity and
// publishes them into a PaperBook. Failures are returned to the caller
// untouched; the loader neither retries nor notifies.
type PaperLoader struct {
	mu         sync.Mutex
	loadMu     sync.Mutex
	session    models.Session
	generation uint64

	repo     paperRepository
	book     *PaperBook
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPaperLoader wires a loader for sess. cache may be nil.
func NewPaperLoader(sess models.Session, repo paperRepository, book *PaperBook, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *PaperLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if book == nil {
		book = NewPaperBook()
	}
	return &PaperLoader{
		session:  sess,
		repo:     repo,
		book:     book,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Book returns the book the loader publishes into.
func (l *PaperLoader) Book() *PaperBook {
	return l.book
}

// Bind switches the loader to another identity. A load still in flight for
// the previous identity is discarded when it completes.
func (l *PaperLoader) Bind(sess models.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session.UserID != sess.UserID {
		l.generation++
		l.book.Reset()
	}
	l.session = sess
}

func paperCacheKey(userID string) string {
	return "papers:" + userID
}

// Load publishes the session user's papers. Repeated calls for an identity
// that is already loaded return the published list without a request.
func (l *PaperLoader) Load(ctx context.Context) ([]models.Paper, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	l.mu.Lock()
	sess := l.session
	gen := l.generation
	l.mu.Unlock()

	if sess.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	if l.book.LoadedFor(sess.UserID) {
		return l.book.Papers(), nil
	}
	return l.publish(ctx, sess, gen)
}

// Refresh drops the cached list of the session user and fetches it again.
// The published list stays in place when the fetch fails.
func (l *PaperLoader) Refresh(ctx context.Context) ([]models.Paper, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	l.mu.Lock()
	sess := l.session
	gen := l.generation
	l.mu.Unlock()

	if sess.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	if err := l.cache.Invalidate(ctx, paperCacheKey(sess.UserID)); err != nil {
		l.logger.Debug("paper list cache not invalidated", zap.String("user_id", sess.UserID), zap.Error(err))
	}
	return l.publish(ctx, sess, gen)
}

func (l *PaperLoader) publish(ctx context.Context, sess models.Session, gen uint64) ([]models.Paper, error) {
	papers, err := l.fetch(ctx, sess)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return nil, appErrors.ErrStaleResponse
	}
	l.book.Publish(sess.UserID, papers)
	return l.book.Papers(), nil
}

func (l *PaperLoader) fetch(ctx context.Context, sess models.Session) ([]models.Paper, error) {
	key := paperCacheKey(sess.UserID)
	var cached []models.Paper
	if hit, err := l.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	papers, err := l.repo.ListByTeacher(ctx, sess)
	if err != nil {
		l.logger.Warn("paper list fetch failed", zap.String("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}
	if err := l.cache.Set(ctx, key, papers, l.cacheTTL); err != nil {
		l.logger.Debug("paper list not cached", zap.String("user_id", sess.UserID), zap.Error(err))
	}
	return papers, nil
}
