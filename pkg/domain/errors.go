package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrDocumentNotFound is returned when a loader has no document for a locale.
var ErrDocumentNotFound = errors.New("document not found")

// ErrInvalidPath is returned when an untrusted path uses steps outside the document vocabulary.
var ErrInvalidPath = errors.New("invalid document path")

// ErrInvalidValue is returned when a value cannot be stored at its target field.
var ErrInvalidValue = errors.New("invalid value for path")

// ErrRewriteInFlight is returned when a rewrite is requested while another one is pending.
var ErrRewriteInFlight = errors.New("rewrite already in flight")

// ErrNoRewriteInFlight is returned when completing or abandoning a rewrite that was never started
// (or whose token does not match).
var ErrNoRewriteInFlight = errors.New("no matching rewrite in flight")
