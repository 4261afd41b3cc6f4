/*
Package ports defines the driven ports (interfaces) for the vitae engine.

These interfaces decouple the diff/reconciliation core from external
implementations, allowing sessions to be persisted in various backends and
documents to come from various sources.

# Key Interfaces

  - DocumentLoader: Supplies locale-specific CV documents (e.g., from Loam or Memory).
  - SessionStore: Persists and loads editing sessions (original, current, change flag).
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Rewriter: The AI-rewrite collaborator that returns a rewritten document.
*/
package ports
