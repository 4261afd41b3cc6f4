package vitae

import (
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/vitae/internal/logging"
	loamAdapter "github.com/aretw0/vitae/pkg/adapters/loam"
	"github.com/aretw0/vitae/pkg/adapters/memory"
	"github.com/aretw0/vitae/pkg/diff"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/observability"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/aretw0/vitae/pkg/session"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the Vitae library.
// It wires a document loader and a session store into a session.Manager.
type Engine struct {
	sessions *session.Manager
	loader   ports.DocumentLoader
	store    ports.SessionStore
	locker   ports.DistributedLocker
	logger   *slog.Logger
	metrics  *observability.Metrics
	gen      identity.Generator
	timeout  time.Duration
	loamOpts []loam.Option
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom DocumentLoader, bypassing the default Loam initialization.
func WithLoader(l ports.DocumentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes session access across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records mutation, analysis and rewrite metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithGenerator overrides the node ID generator (default: UUIDv4).
func WithGenerator(gen identity.Generator) Option {
	return func(e *Engine) {
		e.gen = gen
	}
}

// WithRewriteTimeout bounds how long a rewrite ticket blocks user edits.
func WithRewriteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLoamOptions appends options to the default Loam repository.
func WithLoamOptions(opts ...loam.Option) Option {
	return func(e *Engine) {
		e.loamOpts = append(e.loamOpts, opts...)
	}
}

// New initializes a new Vitae Engine.
// By default, it reads CV documents from a Loam repository at contentDir.
// If WithLoader option is provided, contentDir can be empty and Loam is skipped.
func New(contentDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if contentDir == "" {
			return nil, fmt.Errorf("contentDir is required when no custom loader is provided")
		}
		loader, err := loamAdapter.Open(contentDir, eng.loamOpts...)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if contentDir != "" {
		if abs, err := filepath.Abs(contentDir); err == nil {
			eng.Name = filepath.Base(abs)
		}
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("content", eng.Name)
	}

	managerOpts := []session.Option{
		session.WithLoader(eng.loader),
		session.WithLogger(eng.logger),
		session.WithMetrics(eng.metrics),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	if eng.gen != nil {
		managerOpts = append(managerOpts, session.WithGenerator(eng.gen))
	}
	if eng.timeout > 0 {
		managerOpts = append(managerOpts, session.WithRewriteTimeout(eng.timeout))
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	return eng, nil
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Loader returns the underlying DocumentLoader used by the engine.
func (e *Engine) Loader() ports.DocumentLoader {
	return e.loader
}

// Compare diffs two standalone documents without opening a session.
// When current shares no ID with original (two plain exports, say), IDs are
// carried over by structural position before diffing; otherwise the IDs it
// has are trusted and only missing ones are stamped.
func Compare(original, current *domain.Document) Comparison {
	original = identity.EnsureIDs(original)
	if sharesIDs(original, current) {
		current = identity.EnsureIDs(current)
	} else {
		current = identity.Restamp(original, current)
	}
	return Comparison{
		Original:    original,
		Current:     current,
		Changes:     diff.Analyze(original, current),
		View:        diff.MergeDocument(original, current),
		TextChanges: diff.CompareDocuments(original, current),
	}
}

// Comparison bundles every diff output for a pair of documents.
type Comparison struct {
	Original    *domain.Document  `json:"original"`
	Current     *domain.Document  `json:"current"`
	Changes     diff.ChangeSet    `json:"changes"`
	View        diff.View         `json:"view"`
	TextChanges []diff.TextChange `json:"textChanges"`
}

func sharesIDs(a, b *domain.Document) bool {
	known := identity.Collect(a)
	for id := range identity.Collect(b) {
		if known[id] > 0 {
			return true
		}
	}
	return false
}
