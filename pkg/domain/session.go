package domain

import "time"

// Session is the persisted snapshot of one editing session.
type Session struct {
	// ID identifies the session in the store.
	ID string `json:"id"`

	// Locale is the language of the loaded document (e.g. "en", "pt").
	Locale string `json:"locale,omitempty"`

	// Original is the frozen baseline the current document is diffed against.
	// Nil until a baseline exists.
	Original *Document `json:"original,omitempty"`

	// Current is the live, mutable document.
	Current *Document `json:"current"`

	// HasChanges is set by every mutation and cleared only by a reset.
	HasChanges bool `json:"hasChanges"`

	// Rewrite is the pending AI rewrite, if any.
	Rewrite *RewriteTicket `json:"rewrite,omitempty"`

	// Sealed holds the encrypted session when a store encrypts at rest.
	// Original, Current and Rewrite are empty while it is set.
	Sealed string `json:"sealed,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RewriteTicket marks an in-flight AI rewrite. Only the holder of Token may
// complete or abandon it.
type RewriteTicket struct {
	Token       string    `json:"token"`
	Instruction string    `json:"instruction,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

// NewSession creates a session around a loaded document. Identity assignment
// is the caller's job.
func NewSession(id, locale string, doc *Document) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Locale:    locale,
		Original:  doc.Clone(),
		Current:   doc.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Original = s.Original.Clone()
	c.Current = s.Current.Clone()
	if s.Rewrite != nil {
		r := *s.Rewrite
		c.Rewrite = &r
	}
	return &c
}
