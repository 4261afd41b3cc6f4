package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/vitae/internal/logging"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/editor"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/observability"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/google/uuid"
)

const (
	defaultLockTTL        = 30 * time.Second
	defaultRewriteTimeout = 2 * time.Minute
)

// ErrNoLoader is returned by operations that need a DocumentLoader when none is configured.
var ErrNoLoader = errors.New("no document loader configured")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.SessionStore
	loader ports.DocumentLoader

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker         ports.DistributedLocker // Optional distributed locker
	lockTTL        time.Duration
	rewriteTimeout time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
	gen     identity.Generator
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithRewriteTimeout bounds how long a rewrite ticket blocks the session.
// An expired ticket counts as abandoned.
func WithRewriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.rewriteTimeout = d
		}
	}
}

// WithLoader configures the document source used by Start and SwitchLocale.
func WithLoader(loader ports.DocumentLoader) Option {
	return func(m *Manager) {
		m.loader = loader
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithGenerator overrides the node ID generator.
func WithGenerator(gen identity.Generator) Option {
	return func(m *Manager) {
		m.gen = gen
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		locks:          make(map[string]*lockEntry),
		lockTTL:        defaultLockTTL,
		rewriteTimeout: defaultRewriteTimeout,
		logger:         logging.NewNop(), // Default to no-op
		gen:            identity.UUID,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Loader returns the configured document loader (may be nil).
func (m *Manager) Loader() ports.DocumentLoader {
	return m.loader
}

// Start loads the document for locale and opens a new session on it.
func (m *Manager) Start(ctx context.Context, locale string) (*domain.Session, error) {
	if m.loader == nil {
		return nil, ErrNoLoader
	}
	doc, err := m.loader.LoadDocument(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return m.Create(ctx, "", locale, doc)
}

// Create opens a session on doc. The document goes through the identity
// assigner and becomes both the frozen original and the current copy.
// An empty sessionID gets a generated one.
func (m *Manager) Create(ctx context.Context, sessionID, locale string, doc *domain.Document) (*domain.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if doc == nil {
		doc = &domain.Document{}
	}

	sess := domain.NewSession(sessionID, locale, identity.EnsureIDsWith(doc, m.gen))
	sess.CreatedAt = m.now()
	sess.UpdatedAt = sess.CreatedAt

	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sess)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.logger.Debug("Session created", "session_id", sessionID, "locale", locale)
	return sess, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sess, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Mutate runs fn against the session's mutation store under the session lock
// and persists the result. kind labels the mutation in metrics and logs.
// User mutations are refused while an AI rewrite is in flight.
func (m *Manager) Mutate(ctx context.Context, sessionID, kind string, fn func(*editor.Store) error) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if m.rewritePending(sess) {
			return domain.ErrRewriteInFlight
		}

		st := m.editorFor(sess)
		if err := fn(st); err != nil {
			return err
		}
		m.apply(sess, st)

		if err := m.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.metrics.Mutation(kind)
		m.logger.Debug("Session mutated", "session_id", sessionID, "kind", kind)
		out = sess
		return nil
	})
	return out, err
}

// SetValue writes value at path in the current document.
func (m *Manager) SetValue(ctx context.Context, sessionID string, path domain.Path, value any) (*domain.Session, error) {
	return m.Mutate(ctx, sessionID, observability.MutationSet, func(st *editor.Store) error {
		return st.SetValueAtPath(path, value)
	})
}

// RemoveElement removes the array element at path. Stale paths are a no-op;
// the returned bool reports whether anything was removed.
func (m *Manager) RemoveElement(ctx context.Context, sessionID string, path domain.Path) (*domain.Session, bool, error) {
	var removed bool
	sess, err := m.Mutate(ctx, sessionID, observability.MutationRemove, func(st *editor.Store) error {
		removed = st.RemoveArrayElementAtPath(path)
		return nil
	})
	return sess, removed, err
}

// ReplaceDocument swaps in a whole new current document and marks the session changed.
func (m *Manager) ReplaceDocument(ctx context.Context, sessionID string, doc *domain.Document) (*domain.Session, error) {
	return m.Mutate(ctx, sessionID, observability.MutationReplace, func(st *editor.Store) error {
		st.ReplaceDocument(doc)
		st.MarkChanged()
		return nil
	})
}

// Reset discards every edit: current becomes a deep copy of the original.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.Mutate(ctx, sessionID, observability.MutationReset, func(st *editor.Store) error {
		st.Reset()
		return nil
	})
}

// RestoreField copies the original value at path back into current.
func (m *Manager) RestoreField(ctx context.Context, sessionID string, path domain.Path) (*domain.Session, error) {
	return m.Mutate(ctx, sessionID, observability.MutationRestoreField, func(st *editor.Store) error {
		return st.RestoreField(path)
	})
}

// DeleteField clears the field (or removes the element) at path.
func (m *Manager) DeleteField(ctx context.Context, sessionID string, path domain.Path) (*domain.Session, bool, error) {
	var deleted bool
	sess, err := m.Mutate(ctx, sessionID, observability.MutationDeleteField, func(st *editor.Store) error {
		deleted = st.DeleteField(path)
		return nil
	})
	return sess, deleted, err
}

// RestoreSection re-inserts a removed original section.
func (m *Manager) RestoreSection(ctx context.Context, sessionID string, column domain.Column, key string) (*domain.Session, bool, error) {
	var restored bool
	sess, err := m.Mutate(ctx, sessionID, observability.MutationRestoreSection, func(st *editor.Store) error {
		restored = st.RestoreSection(column, key)
		return nil
	})
	return sess, restored, err
}

func (m *Manager) editorFor(sess *domain.Session) *editor.Store {
	return editor.Restore(sess.Original, sess.Current, sess.HasChanges,
		editor.WithGenerator(m.gen),
		editor.WithLogger(m.logger.With("session_id", sess.ID)),
	)
}

func (m *Manager) apply(sess *domain.Session, st *editor.Store) {
	sess.Current = st.Current()
	sess.HasChanges = st.HasChanges()
	sess.UpdatedAt = m.now()
}
