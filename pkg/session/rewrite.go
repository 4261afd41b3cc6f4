package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/observability"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/google/uuid"
)

// rewritePending reports whether sess holds a live (non-expired) rewrite ticket.
func (m *Manager) rewritePending(sess *domain.Session) bool {
	if sess.Rewrite == nil {
		return false
	}
	return m.now().Sub(sess.Rewrite.StartedAt) < m.rewriteTimeout
}

// BeginRewrite claims the session for one AI rewrite round trip. It returns
// the ticket token and the document the rewriter should work on.
// A second Begin before Complete/Abandon fails with domain.ErrRewriteInFlight.
func (m *Manager) BeginRewrite(ctx context.Context, sessionID, instruction string) (string, *domain.Document, error) {
	var (
		token    string
		snapshot *domain.Document
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if m.rewritePending(sess) {
			m.metrics.Rewrite(observability.RewriteRejected)
			m.logger.Warn("Rejected concurrent rewrite", "session_id", sessionID)
			return domain.ErrRewriteInFlight
		}
		if sess.Rewrite != nil {
			m.logger.Info("Discarding expired rewrite ticket", "session_id", sessionID, "started_at", sess.Rewrite.StartedAt)
		}

		token = uuid.NewString()
		sess.Rewrite = &domain.RewriteTicket{
			Token:       token,
			Instruction: instruction,
			StartedAt:   m.now(),
		}
		if err := m.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		snapshot = sess.Current
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	m.metrics.Rewrite(observability.RewriteStarted)
	return token, snapshot, nil
}

// CompleteRewrite applies a rewritten document as one bulk replace.
//
// Rewriters are not trusted to carry node IDs over: the response is validated
// against the pre-rewrite document (the warnings are returned and logged,
// never fatal), then IDs are re-stamped by structural position so the diff
// still matches rewritten nodes against the original baseline.
func (m *Manager) CompleteRewrite(ctx context.Context, sessionID, token string, rewritten *domain.Document) (*domain.Session, []identity.Warning, error) {
	var (
		out      *domain.Session
		warnings []identity.Warning
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Rewrite == nil || sess.Rewrite.Token != token {
			return domain.ErrNoRewriteInFlight
		}

		if rewritten == nil {
			return fmt.Errorf("%w: empty rewrite response", domain.ErrInvalidValue)
		}

		pre := sess.Current
		warnings = identity.Validate(pre, rewritten)
		restamped := identity.RestampWith(pre, rewritten, m.gen)

		st := m.editorFor(sess)
		st.ReplaceDocument(restamped)
		st.MarkChanged()
		m.apply(sess, st)
		sess.Rewrite = nil

		if err := m.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, w := range warnings {
		m.logger.Warn("Rewrite identity warning", "session_id", sessionID, "kind", w.Kind, "path", w.Path.String(), "id", w.ID)
	}
	m.metrics.Warnings(len(warnings))
	m.metrics.Rewrite(observability.RewriteCompleted)
	m.metrics.Mutation(observability.MutationReplace)
	return out, warnings, nil
}

// AbandonRewrite releases the ticket without touching the document.
func (m *Manager) AbandonRewrite(ctx context.Context, sessionID, token string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Rewrite == nil || sess.Rewrite.Token != token {
			return domain.ErrNoRewriteInFlight
		}
		sess.Rewrite = nil
		return m.store.Save(ctx, sess)
	})
	if err != nil {
		return err
	}
	m.metrics.Rewrite(observability.RewriteAbandoned)
	return nil
}

// Rewrite runs a whole round trip through rewriter. The rewriter is called
// outside the session lock and bounded by the rewrite timeout, so it cannot
// outlive its ticket. Any failure abandons the ticket.
func (m *Manager) Rewrite(ctx context.Context, sessionID string, rewriter ports.Rewriter, instruction string) (*domain.Session, []identity.Warning, error) {
	token, snapshot, err := m.BeginRewrite(ctx, sessionID, instruction)
	if err != nil {
		return nil, nil, err
	}

	rewriteCtx, cancel := context.WithTimeout(ctx, m.rewriteTimeout)
	rewritten, err := rewriter.Rewrite(rewriteCtx, snapshot, instruction)
	cancel()
	if err != nil {
		m.abandon(ctx, sessionID, token)
		return nil, nil, fmt.Errorf("rewrite failed: %w", err)
	}

	sess, warnings, err := m.CompleteRewrite(ctx, sessionID, token, rewritten)
	if err != nil {
		m.abandon(ctx, sessionID, token)
		return nil, nil, err
	}
	return sess, warnings, nil
}

// abandon releases a ticket after a failed round trip, even if ctx is done.
func (m *Manager) abandon(ctx context.Context, sessionID, token string) {
	m.metrics.Rewrite(observability.RewriteFailed)
	err := m.AbandonRewrite(context.WithoutCancel(ctx), sessionID, token)
	if err != nil && !errors.Is(err, domain.ErrNoRewriteInFlight) {
		m.logger.Warn("Failed to abandon rewrite", "session_id", sessionID, "err", err)
	}
}
