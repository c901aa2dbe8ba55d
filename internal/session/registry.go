package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/revision"
	"github.com/dgallion1/reportdoc/internal/store"
)

// DefaultTTL is how long an idle session stays in memory.
const DefaultTTL = 30 * time.Minute

// Registry keeps open sessions in a TTL cache backed by a Store. A session
// evicted from the cache is reloaded from the store on next access.
type Registry struct {
	cache *cache.Cache
	store store.Store
	cfg   Config
	ttl   time.Duration
	log   *slog.Logger

	loadMu sync.Mutex
}

// NewRegistry builds a registry. Every session mutation is saved to st.
func NewRegistry(st store.Store, ttl time.Duration, cfg Config) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		cache: cache.New(ttl, ttl/2),
		store: st,
		ttl:   ttl,
		log:   log,
	}
	cfg.Logger = log
	cfg.OnChange = r.persist
	r.cfg = cfg

	r.cache.OnEvicted(func(docID string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		r.log.Debug("session evicted", "doc_id", docID)
	})
	return r
}

// Create opens a new session and saves its initial state.
func (r *Registry) Create(ctx context.Context, docID, text string, documents []doctree.SourceDocument) (*Session, error) {
	s := New(docID, text, documents, r.cfg)
	if err := r.store.Save(ctx, s.Snapshot()); err != nil {
		s.Close()
		return nil, fmt.Errorf("save new session: %w", err)
	}
	r.cache.Set(docID, s, cache.DefaultExpiration)
	r.log.Info("session created", "doc_id", docID, "sections", len(s.Sections()))
	return s, nil
}

// Get returns the open session for docID, loading it from the store when it
// is not cached. A missing document returns store.ErrNotFound.
func (r *Registry) Get(ctx context.Context, docID string) (*Session, error) {
	if s, ok := r.cached(docID); ok {
		return s, nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if s, ok := r.cached(docID); ok {
		return s, nil
	}

	snap, err := r.store.Load(ctx, docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session %s: %w", docID, err)
	}
	s := FromSnapshot(*snap, r.cfg)
	r.cache.Set(docID, s, cache.DefaultExpiration)
	r.log.Debug("session loaded", "doc_id", docID)
	return s, nil
}

// cached returns a cached session and extends its lifetime.
func (r *Registry) cached(docID string) (*Session, bool) {
	v, found := r.cache.Get(docID)
	if !found {
		return nil, false
	}
	s := v.(*Session)
	r.cache.Set(docID, s, cache.DefaultExpiration)
	return s, true
}

// Delete closes the session and removes the document from the store.
func (r *Registry) Delete(ctx context.Context, docID string) error {
	r.cache.Delete(docID)
	return r.store.Delete(ctx, docID)
}

// List returns stored document ids when the store can enumerate them.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	l, ok := r.store.(store.Lister)
	if !ok {
		return nil, errors.New("store does not support listing")
	}
	return l.List(ctx)
}

// Len returns the number of cached sessions.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close stops every cached session.
func (r *Registry) Close() {
	for docID := range r.cache.Items() {
		r.cache.Delete(docID)
	}
}

func (r *Registry) persist(snap revision.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, snap); err != nil {
		r.log.Error("persist session", "doc_id", snap.DocID, "error", err)
	}
}
